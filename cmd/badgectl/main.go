// badgectl drives a badge's control surface from a laptop on its access point
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aouyang1/popbadge/api/client"
)

const usage = `usage: badgectl [-addr URL] <command> [args]

commands:
  upload <file> [id]   store a PNG in slot id (default 0)
  delete <id>          remove the PNG in slot id
  interval [ms]        show or change the slide interval
  start                start the slideshow without waiting out the startup delay
  status               print what the badge is showing
  slots                list stored artifacts
`

var errUsage = errors.New("invalid usage")

func main() {
	addr := flag.String("addr", "http://192.168.4.1", "badge base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	err := run(ctx, client.NewBadgeClient(*addr), flag.Args(), os.Stdout)
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, bc *client.BadgeClient, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "upload":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		slot := 0
		if len(rest) == 2 {
			var err error
			if slot, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("%w: slot must be a number", errUsage)
			}
		}
		if err := bc.Upload(ctx, rest[0], slot); err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s to slot %d\n", rest[0], slot)

	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		slot, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("%w: slot must be a number", errUsage)
		}
		if err := bc.Delete(ctx, slot); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted slot %d\n", slot)

	case "interval":
		switch len(rest) {
		case 0:
			ms, err := bc.Interval(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ms)
		case 1:
			ms, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("%w: interval must be a number of milliseconds", errUsage)
			}
			if err := bc.SetInterval(ctx, ms); err != nil {
				return err
			}
			fmt.Fprintf(out, "interval set to %dms\n", ms)
		default:
			return errUsage
		}

	case "start":
		if err := bc.StartSlideshow(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "slideshow started")

	case "status":
		status, err := bc.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, status)

	case "slots":
		slots, err := bc.Slots(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, slots)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
