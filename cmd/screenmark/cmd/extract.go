package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/screenmark/internal/extract"
	"github.com/MeKo-Tech/screenmark/internal/geometry"
	"github.com/MeKo-Tech/screenmark/internal/mcode"
	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

var extractCmd = &cobra.Command{
	Use:   "extract <capture>",
	Short: "Recover the embedded payload from a capture",
	Long: `Run the extraction chain against a screenshot or a photo of a screen.

Exits 0 with the payload on success and 1 when no watermark is found, so
the result is scriptable.

Examples:
  screenmark extract screenshot.png
  screenmark extract photo-of-screen.jpg --format json
  screenmark extract screenshot.png --simple`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runExtract,
}

// extractReport is the JSON output shape.
type extractReport struct {
	Payload    string  `json:"payload"`
	Subject    string  `json:"subject,omitempty"`
	Device     string  `json:"device,omitempty"`
	UUID       string  `json:"uuid,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q (must be text or json)", format)
	}

	img, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	buf := pixel.FromImage(img)

	engine := extract.NewEngine(cfg.ToExtractConfig(), mcode.NewDefaultBackend(), noExternalDetector())
	result, err := engine.Extract(buf)
	if err != nil {
		return err
	}

	report := extractReport{
		Payload:    result.Payload,
		Confidence: result.Confidence,
		Method:     result.Method,
	}
	if p, perr := payload.Parse(result.Payload); perr == nil {
		report.Subject = p.SubjectID
		report.Device = p.DeviceLabel
		report.UUID = p.DeviceUUID
		report.Timestamp = time.Unix(p.EpochSeconds, 0).UTC().Format(time.RFC3339)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "payload:    %s\n", report.Payload)
	fmt.Fprintf(cmd.OutOrStdout(), "confidence: %.2f\n", report.Confidence)
	fmt.Fprintf(cmd.OutOrStdout(), "method:     %s\n", report.Method)
	return nil
}

// noExternalDetector returns nil: the built-in contour and line detectors
// cover screen detection, and a nil detector just skips the external
// strategy.
func noExternalDetector() geometry.RectangleDetector {
	return nil
}

func init() {
	extractCmd.Flags().String("format", "text", "output format (text, json)")
	extractCmd.Flags().Bool("simple", false, "fast direct-decode mode for trusted digital screenshots")
	extractCmd.Flags().Bool("screen-detection", true, "detect and rectify photographed screens")
	extractCmd.Flags().Int("workers", 1, "strategy worker pool size (1 = sequential)")
	extractCmd.Flags().Float64("threshold", 0.35, "base confidence threshold")

	_ = viper.BindPFlag("extract.simple_mode", extractCmd.Flags().Lookup("simple"))
	_ = viper.BindPFlag("extract.screen_detection", extractCmd.Flags().Lookup("screen-detection"))
	_ = viper.BindPFlag("extract.max_workers", extractCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("extract.confidence_threshold", extractCmd.Flags().Lookup("threshold"))

	rootCmd.AddCommand(extractCmd)
}
