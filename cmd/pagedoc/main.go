package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagedoc/internal/compiler"
	"pagedoc/internal/pipeline"
	"pagedoc/internal/recognize"
	"pagedoc/internal/render"
	"pagedoc/internal/source"
)

var (
	rootCmd = &cobra.Command{
		Use:   "pagedoc",
		Short: "Turn scanned PDFs and images into editable documents",
	}
	configPath string
	flags      runFlags
)

// runFlags are shared by convert and ocr; empty values keep the config's.
type runFlags struct {
	provider     string
	model        string
	apiKey       string
	baseURL      string
	prompt       string
	dpi          int
	concurrency  int
	deleteImages bool
	noCache      bool
	format       string
	separator    string
	reportPath   string
	blocksJSON   string
	output       string
	outputDir    string
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	for _, cmd := range []*cobra.Command{convertCmd, ocrCmd} {
		cmd.Flags().StringVar(&flags.provider, "provider", "", "Recognition provider: openrouter, gemini, ollama, tesseract, textlayer")
		cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model alias or full model id (see 'pagedoc models')")
		cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "API key for the recognition provider")
		cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Override the provider endpoint")
		cmd.Flags().StringVar(&flags.prompt, "prompt", "", "Custom recognition prompt")
		cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Pages recognized in parallel")
		cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Do not read or write the page cache")
		cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a JSON run report to this path")
	}

	convertCmd.Flags().IntVar(&flags.dpi, "dpi", 0, "Rasterization DPI (default 200)")
	convertCmd.Flags().BoolVar(&flags.deleteImages, "delete-images", false, "Remove page images after conversion")
	convertCmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: docx, pdf, md (default: by output extension)")
	convertCmd.Flags().StringVar(&flags.separator, "separator", "", "Page separator: rule, break, none")
	convertCmd.Flags().StringVar(&flags.blocksJSON, "json", "", "Also write the compiled blocks as JSON")

	ocrCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file for a single image")
	ocrCmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Output directory for multiple images (default ocr_results)")

	renderCmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: docx, pdf, md (default: by output extension)")
	renderCmd.Flags().StringVar(&flags.blocksJSON, "json", "", "Also write the compiled blocks as JSON")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(modelsCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseFormat(s string) render.Format {
	if s == "" {
		return ""
	}
	f, err := render.ParseFormat(s)
	if err != nil {
		log.Fatalf("Invalid --format: %v", err)
	}
	return f
}

var convertCmd = &cobra.Command{
	Use:   "convert INPUT [OUTPUT]",
	Short: "Recognize every page of a PDF or image and write a document",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		input := args[0]
		output := pipeline.DefaultOutput(input)
		if len(args) > 1 {
			output = args[1]
		}

		rt, err := setup(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer rt.close()

		fmt.Printf("📄 Input:  %s\n", input)
		fmt.Printf("📝 Output: %s\n", output)
		fmt.Printf("🤖 Recognizer: %s\n", rt.recognizerName())
		fmt.Printf("🖼️  DPI: %d\n\n", rt.cfg.Source.DPI)

		rt.converter.SetProgress(printProgress)
		start := time.Now()
		res, err := rt.converter.Convert(ctx, pipeline.ConvertRequest{
			Input:      input,
			Output:     output,
			Format:     parseFormat(flags.format),
			Separator:  compiler.Separator(rt.cfg.Render.PageSeparator),
			BlocksJSON: flags.blocksJSON,
			ReportPath: flags.reportPath,
		})
		if errors.Is(err, pipeline.ErrAllPagesFailed) {
			log.Fatalf("✗ No page could be recognized; check the model and API key (%v)", err)
		}
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}

		if res.Fallback {
			fmt.Printf("\n⚠️  Document rendering failed; markdown saved instead: %s\n", res.Output)
		} else {
			fmt.Printf("\n✅ Conversion complete in %v\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("   Output: %s (%s)\n", res.Output, res.Format)
		}
		fmt.Printf("   Pages recognized: %d/%d, blocks: %d\n", res.Recognized, res.Pages, len(res.Document))
		if source.IsPDF(input) && rt.cfg.KeepImages() && rt.cfg.OCR.Provider != "textlayer" {
			fmt.Printf("   Page images kept in: %s\n", imageDirFor(input, rt.cfg.Source.ImageDir))
		}
	},
}

var ocrCmd = &cobra.Command{
	Use:   "ocr IMAGE...",
	Short: "Recognize images (files, directories or globs) into text files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		rt, err := setup(ctx, true)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer rt.close()
		if rt.cfg.OCR.Provider == "textlayer" {
			log.Fatalf("The textlayer provider only reads PDFs; pick an image recognizer")
		}

		fmt.Printf("🔍 Recognizer: %s\n\n", rt.recognizerName())
		rt.converter.SetProgress(printProgress)
		res, err := rt.converter.RecognizeImages(ctx, pipeline.OCRRequest{
			Patterns:   args,
			Output:     flags.output,
			OutputDir:  flags.outputDir,
			ReportPath: flags.reportPath,
		})
		if res != nil {
			fmt.Println()
			for _, item := range res.Items {
				if item.Err != nil {
					fmt.Printf("✗ %s: %v\n", filepath.Base(item.Image), item.Err)
					continue
				}
				fmt.Printf("✓ %s -> %s (%d chars)\n", filepath.Base(item.Image), item.Output, item.Chars)
			}
			fmt.Printf("\n📊 Succeeded: %d/%d\n", res.Succeeded, len(res.Items))
			if res.Combined != "" {
				fmt.Printf("📚 Combined: %s\n", res.Combined)
			}
		}
		if err != nil {
			log.Fatalf("OCR failed: %v", err)
		}
		if res.Succeeded < len(res.Items) {
			os.Exit(1)
		}
	},
}

var renderCmd = &cobra.Command{
	Use:   "render INPUT.md [OUTPUT]",
	Short: "Compile a markdown file into a document without recognition",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		output := ""
		if len(args) > 1 {
			output = args[1]
		}
		rt, err := setup(ctx, false)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer rt.close()

		res, err := rt.converter.RenderFile(ctx, pipeline.RenderRequest{
			Input:      args[0],
			Output:     output,
			Format:     parseFormat(flags.format),
			BlocksJSON: flags.blocksJSON,
		})
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		fmt.Printf("✅ %s -> %s (%d blocks)\n", args[0], res.Output, len(res.Document))
		if flags.blocksJSON != "" {
			fmt.Printf("   Blocks JSON: %s\n", flags.blocksJSON)
		}
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the vision models known by alias",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available models:")
		for _, m := range recognize.Catalog() {
			badge := "💰"
			if m.Free {
				badge = "🆓"
			}
			fmt.Printf("  %s %-22s -> %s", badge, m.Alias, m.ID)
			if m.Note != "" {
				fmt.Printf("  (%s)", m.Note)
			}
			fmt.Println()
		}
		fmt.Println("\nAny full OpenRouter model id (vendor/model) is accepted as well.")
	},
}

func printProgress(done, total int, page pipeline.PageMetric) {
	name := filepath.Base(page.Path)
	switch {
	case page.Status != "ok":
		fmt.Printf("  [%d/%d] ✗ %s: %s\n", done, total, name, page.Error)
	case page.Cached:
		fmt.Printf("  [%d/%d] ♻️  %s (cached, %d chars)\n", done, total, name, page.Chars)
	default:
		fmt.Printf("  [%d/%d] ✓ %s (%d chars, %dms)\n", done, total, name, page.Chars, page.DurationMS)
	}
}
