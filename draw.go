/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Seednode/secretsanta/pairing"
)

const clearScreen = "\033[H\033[2J"

type drawOptions struct {
	file   string
	seed   uint64
	reveal bool
}

func newDrawCmd() *cobra.Command {
	opts := &drawOptions{}

	cmd := &cobra.Command{
		Use:   "draw [names...]",
		Short: "Draw assignments on this device.",
		Long: "Draw assignments on this device. Names may be given as arguments, comma separated, " +
			"or one per line in --file. With --reveal, pass the device around and each person sees only their own match.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.names(args)
			if err != nil {
				return err
			}

			engine := pairing.Default()
			if cmd.Flags().Changed("seed") {
				engine = pairing.NewSeeded(opts.seed)
			}

			pairs, err := engine.Generate(names)
			if err != nil {
				return drawError(err)
			}

			if opts.reveal {
				return passAround(cmd.InOrStdin(), cmd.OutOrStdout(), pairs)
			}

			return printPairs(cmd.OutOrStdout(), pairs)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.file, "file", "f", "", "read names from file, one per line or comma separated (- for stdin)")
	fs.Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible draw")
	fs.BoolVarP(&opts.reveal, "reveal", "r", false, "reveal one match at a time, pass-the-phone style")

	return cmd
}

func (o *drawOptions) names(args []string) ([]string, error) {
	names := pairing.ParseNames(strings.Join(args, ","))

	if o.file == "" {
		return names, nil
	}

	var (
		data []byte
		err  error
	)
	if o.file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(o.file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}

	return append(names, pairing.ParseNames(string(data))...), nil
}

// drawError turns validation failures into the messages people see.
func drawError(err error) error {
	var verr *pairing.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	switch verr.Reason {
	case pairing.TooFewParticipants:
		return errors.New("Add at least 2 names")
	case pairing.DuplicateName:
		return fmt.Errorf("Duplicate names found: %s", verr.Name)
	default:
		return err
	}
}

func printPairs(w io.Writer, pairs []pairing.Pair) error {
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s -> %s\n", p.Giver, p.Receiver); err != nil {
			return err
		}
	}
	return nil
}

// passAround shows each giver their receiver in turn, hiding it again
// before the next person takes the device.
func passAround(r io.Reader, w io.Writer, pairs []pairing.Pair) error {
	in := bufio.NewScanner(r)

	wait := func() error {
		if in.Scan() {
			return nil
		}
		if err := in.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}

	for i, p := range pairs {
		fmt.Fprintf(w, "%s(%d/%d) Pass the device to %s, then press Enter to reveal.\n", clearScreen, i+1, len(pairs), p.Giver)
		if err := wait(); err != nil {
			return err
		}

		fmt.Fprintf(w, "%s, you are gifting: %s\nPress Enter to hide.\n", p.Giver, p.Receiver)
		if err := wait(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%sEveryone has their match. Happy gifting!\n", clearScreen)

	return nil
}
