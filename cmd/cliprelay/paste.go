package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/update"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the shared clipboard to stdout (like pbpaste)",
		Long: `Fetches the current clipboard from the relay and writes it to stdout.

Prints the text format by default. To retrieve an image:

  cliprelay paste --format image > screenshot.png

If the requested format is absent nothing is printed (exit 0).`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.String("server", "http://localhost:3000", "relay base URL")
	f.String("api-key", "", "pre-shared key")
	f.String("format", update.FormatText, "format to output: text|image")
	addConfigFlag(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	client := newAPIClient(v.GetString("server"), v.GetString("api-key"))

	var u update.Update
	if err := client.fetch(&u); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	switch v.GetString("format") {
	case update.FormatText:
		if text := u.Text(); text != "" {
			_, err := os.Stdout.WriteString(text)
			return err
		}
	case update.FormatImage:
		if uri := u.Image(); uri != "" {
			raw, err := clip.DecodeImage(uri)
			if err != nil {
				return fmt.Errorf("decode image: %w", err)
			}
			_, err = os.Stdout.Write(raw)
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", v.GetString("format"))
	}

	// Requested format not present — exit 0, print nothing (pbpaste behaviour).
	return nil
}
