package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Capture the active window or screen as a PNG",
	Long: `Capture the active window (or the whole screen where window capture is
unavailable), downscale it to --max-dimension and store it under the captures
directory. The result names the stored file, its source and resolution.`,
	Args: cobra.NoArgs,
	RunE: runImage,
}

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Extract visible text from the active window or screen",
	Args:  cobra.NoArgs,
	RunE:  runText,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(textCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.surface.CaptureScreenImage(cmd.Context())
	if err := render(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.OK() {
		return errors.New(resp.Error)
	}
	return nil
}

func runText(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.surface.CaptureScreenText(cmd.Context())
	if err := render(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.OK() {
		return errors.New(resp.Error)
	}
	return nil
}
