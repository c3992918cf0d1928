package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RinLeung/canvas2/internal/editor"
	"github.com/RinLeung/canvas2/internal/meta"
	"github.com/RinLeung/canvas2/pkg/geometry"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canvas2",
	Short: "Crop images through a pan/zoom viewport",
	Long: `canvas2 crops images the way the interactive editor does: the image is
placed on a fixed-size stage, panned and zoomed, and a selection rectangle on
the stage is mapped back to native pixels and written out as PNG. Selection
areas that overhang the image come out transparent.

Examples:
  # Crop the center 200x150 stage region of a photo
  canvas2 -i photo.jpg -o crop.png --selection 300,225,200,150

  # Zoom to 2x first, panned 50 stage units left
  canvas2 -i photo.jpg -o crop.png --scale 2 --offset-x -50 --selection 100,100,400,300

  # Initialize a 16:9 selection instead of giving one explicitly
  canvas2 -i photo.jpg -o crop.png --ratio 16:9

  # Print embedded DPI metadata while cropping
  canvas2 -i scan.png -o crop.png --ratio 1:1 --show-dpi

  # Start HTTP server
  canvas2 serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// With no flags at all, show help instead of failing on a
		// missing input file.
		if cmd.Flags().NFlag() == 0 {
			return cmd.Help()
		}
		return runCrop(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.canvas2.yaml)")

	// Input/output options
	rootCmd.Flags().StringP("input", "i", "", "input image file (PNG or JPEG, required)")
	rootCmd.Flags().StringP("output", "o", "", "output PNG file (default: stdout)")

	// Stage and viewport options
	rootCmd.Flags().Float64("stage-width", 800, "stage width in stage units")
	rootCmd.Flags().Float64("stage-height", 600, "stage height in stage units")
	rootCmd.Flags().Float64("scale", 1.0, "zoom scale (clamped to 0.2..3.0)")
	rootCmd.Flags().Float64("offset-x", 0, "horizontal pan from the centered position")
	rootCmd.Flags().Float64("offset-y", 0, "vertical pan from the centered position")

	// Selection options
	rootCmd.Flags().StringP("selection", "s", "", "selection as 'x,y,width,height' in stage units")
	rootCmd.Flags().StringP("ratio", "r", "1:1", "aspect ratio for the default selection (1:1|1:2|2:3|3:4|4:5|16:9|3:2|4:3)")
	rootCmd.Flags().Bool("lock", false, "keep the aspect ratio locked while clamping the selection")

	// Metadata options
	rootCmd.Flags().Bool("show-dpi", false, "print embedded DPI metadata to stderr")

	// Bind flags to viper for root command
	viper.BindPFlag("input", rootCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("stage-width", rootCmd.Flags().Lookup("stage-width"))
	viper.BindPFlag("stage-height", rootCmd.Flags().Lookup("stage-height"))
	viper.BindPFlag("scale", rootCmd.Flags().Lookup("scale"))
	viper.BindPFlag("offset-x", rootCmd.Flags().Lookup("offset-x"))
	viper.BindPFlag("offset-y", rootCmd.Flags().Lookup("offset-y"))
	viper.BindPFlag("selection", rootCmd.Flags().Lookup("selection"))
	viper.BindPFlag("ratio", rootCmd.Flags().Lookup("ratio"))
	viper.BindPFlag("lock", rootCmd.Flags().Lookup("lock"))
	viper.BindPFlag("show-dpi", rootCmd.Flags().Lookup("show-dpi"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".canvas2" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".canvas2")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runCrop(cmd *cobra.Command, args []string) error {
	input := viper.GetString("input")
	if input == "" {
		return fmt.Errorf("input file is required (use --input)")
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", input, err)
	}

	e := editor.New(viper.GetFloat64("stage-width"), viper.GetFloat64("stage-height"))
	if err := e.Load(cmd.Context(), data); err != nil {
		return fmt.Errorf("failed to load %s: %v", input, err)
	}

	if viper.GetBool("show-dpi") {
		printResolution(cmd, e)
	}

	if err := e.SetAspectRatio(viper.GetString("ratio")); err != nil {
		return err
	}
	e.SetAspectLock(viper.GetBool("lock"))

	// Viewport: apply the requested zoom anchored at the stage center,
	// then the pan. Both are clamped the same way interactive input is.
	v := e.Viewport()
	e.ZoomAt(v.StageWidth/2, v.StageHeight/2, viper.GetFloat64("scale"))
	e.PanBy(viper.GetFloat64("offset-x"), viper.GetFloat64("offset-y"))

	if sel := viper.GetString("selection"); sel != "" {
		box, err := parseSelection(sel)
		if err != nil {
			return err
		}
		e.SetSelection(box)
	}

	out, err := e.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to export crop: %v", err)
	}

	output := viper.GetString("output")
	if output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(output, out, 0o644)
}

// parseSelection parses 'x,y,width,height' in stage units.
func parseSelection(s string) (geometry.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Box{}, fmt.Errorf("selection must be in format 'x,y,width,height'")
	}

	vals := make([]float64, 4)
	for i, name := range []string{"x", "y", "width", "height"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return geometry.Box{}, fmt.Errorf("invalid %s in selection: %v", name, err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 || vals[3] <= 0 {
		return geometry.Box{}, fmt.Errorf("selection width and height must be positive")
	}

	return geometry.Box{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func printResolution(cmd *cobra.Command, e *editor.Editor) {
	res, err := e.Resolution()
	switch {
	case err == nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "Resolution: %.0f x %.0f DPI\n", res.DPIX, res.DPIY)
	case errors.Is(err, meta.ErrNoMetadata):
		fmt.Fprintln(cmd.ErrOrStderr(), "Resolution: no metadata")
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), "Resolution: unknown")
	}
}
