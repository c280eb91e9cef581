package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

var embedCmd = &cobra.Command{
	Use:   "embed <input-image>",
	Short: "Embed an identity payload into an image",
	Long: `Embed a subject/device/timestamp payload into an image using the
configured scheme.

Schemes: lsb, regional, spread, frequency, stamp, hybrid (default).
The steganographic schemes only survive lossless output; prefer PNG.

Examples:
  screenmark embed desktop.png --subject jdoe --out marked.png
  screenmark embed desktop.png --subject jdoe --scheme stamp --luminous --out marked.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runEmbed,
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	subject, _ := cmd.Flags().GetString("subject")
	device, _ := cmd.Flags().GetString("device")
	uuid, _ := cmd.Flags().GetString("uuid")
	out, _ := cmd.Flags().GetString("out")

	if subject == "" {
		return errors.New("--subject is required")
	}
	if device == "" {
		device, _ = os.Hostname()
	}
	if out == "" {
		return errors.New("--out is required")
	}

	scheme, hybrid, err := parseScheme(cfg.Embed.Scheme)
	if err != nil {
		return err
	}
	if lossy(out) && scheme != embed.SchemeStamp {
		slog.Warn("lossy output format will destroy steganographic layers", "output", out)
	}

	img, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	buf := pixel.FromImage(img)

	p := payload.New(subject, device, uuid)
	engine := embed.NewEngine(cfg.ToEmbedConfig())

	var marked *pixel.Buffer
	if hybrid {
		marked, err = engine.EmbedHybrid(buf, p)
	} else {
		marked, err = engine.Embed(buf, p, scheme)
	}
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	if err := imaging.Save(marked.ToImage(), out); err != nil {
		return fmt.Errorf("saving %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "embedded payload %q into %s\n", p.String(), out)
	return nil
}

// parseScheme maps the config value to a scheme; hybrid is a composition,
// not a single scheme.
func parseScheme(name string) (embed.Scheme, bool, error) {
	switch name {
	case "hybrid":
		return 0, true, nil
	case "lsb":
		return embed.SchemeLSB, false, nil
	case "regional":
		return embed.SchemeRegional, false, nil
	case "spread":
		return embed.SchemeSpread, false, nil
	case "frequency":
		return embed.SchemeFrequency, false, nil
	case "stamp":
		return embed.SchemeStamp, false, nil
	default:
		return 0, false, fmt.Errorf("unknown scheme %q", name)
	}
}

func lossy(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func init() {
	embedCmd.Flags().String("subject", "", "subject identifier (required)")
	embedCmd.Flags().String("device", "", "device label (default: hostname)")
	embedCmd.Flags().String("uuid", "", "device UUID")
	embedCmd.Flags().StringP("out", "o", "", "output image path (required)")
	embedCmd.Flags().String("scheme", "hybrid", "embedding scheme (lsb, regional, spread, frequency, stamp, hybrid)")
	embedCmd.Flags().Int("opacity", 255, "stamp opacity 1-255")
	embedCmd.Flags().Bool("luminous", false, "use the bright stamp palette for dark themes")
	embedCmd.Flags().Bool("with-spread", false, "add the spread-spectrum layer to hybrid embedding")

	_ = viper.BindPFlag("embed.scheme", embedCmd.Flags().Lookup("scheme"))
	_ = viper.BindPFlag("embed.opacity", embedCmd.Flags().Lookup("opacity"))
	_ = viper.BindPFlag("embed.luminous", embedCmd.Flags().Lookup("luminous"))
	_ = viper.BindPFlag("embed.with_spread", embedCmd.Flags().Lookup("with-spread"))

	rootCmd.AddCommand(embedCmd)
}
