package main

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/update"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the shared clipboard (like pbcopy)",
		Long: `Reads stdin and submits it to the relay via the one-shot endpoint.

Text is submitted as the text format; with --image the input is treated as a
PNG and submitted as the image format.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.String("server", "http://localhost:3000", "relay base URL")
	f.String("api-key", "", "pre-shared key")
	f.Bool("image", false, "treat stdin as PNG image data")
	f.String("source", defaultSource(), "source tag for this submission")
	addConfigFlag(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	formats := map[string]any{}
	switch {
	case v.GetBool("image"):
		formats[update.FormatImage] = clip.EncodeImage(data)
	case utf8.Valid(data):
		formats[update.FormatText] = string(data)
	default:
		return fmt.Errorf("stdin is not valid UTF-8; use --image for binary data")
	}

	client := newAPIClient(v.GetString("server"), v.GetString("api-key"))
	return client.submit(map[string]any{
		"formats": formats,
		"source":  v.GetString("source"),
	})
}
