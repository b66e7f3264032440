package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gmscreen/initiative/internal/model"
	"github.com/gmscreen/initiative/internal/ws"
)

// Output formats command results as human-readable text or JSON.
type Output struct {
	w      io.Writer
	format string
}

func NewOutput(w io.Writer, format string) (*Output, error) {
	switch format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Output{w: w, format: format}, nil
}

func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *Output) Message(format string, args ...any) {
	if o.format == "json" {
		return
	}
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Snapshot prints the roster in initiative order.
func (o *Output) Snapshot(snap *ws.RosterSnapshot) error {
	if o.format == "json" {
		return o.JSON(snap)
	}
	byName := make(map[string]model.CharacterView, len(snap.Characters))
	for _, c := range snap.Characters {
		byName[c.Name] = c
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINITIATIVE\tROLL\tDEX\tWIS\tFLAGS")
	for _, name := range snap.Order {
		c, ok := byName[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, formatStat(c.Initiative), formatStat(c.Roll),
			formatStat(c.Dex), formatStat(c.Wis), formatFlags(c))
	}
	return tw.Flush()
}

// Character prints a single character's visible fields.
func (o *Output) Character(c *model.CharacterView) error {
	if o.format == "json" {
		return o.JSON(c)
	}
	fmt.Fprintf(o.w, "%s: initiative %s, roll %s, dex %s, wis %s",
		c.Name, formatStat(c.Initiative), formatStat(c.Roll),
		formatStat(c.Dex), formatStat(c.Wis))
	if flags := formatFlags(*c); flags != "" {
		fmt.Fprintf(o.w, " (%s)", flags)
	}
	fmt.Fprintln(o.w)
	return nil
}

func formatStat(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatFlags(c model.CharacterView) string {
	var flags []string
	if c.Player {
		flags = append(flags, "player")
	}
	if c.Hidden != nil && *c.Hidden {
		flags = append(flags, "hidden")
	}
	return strings.Join(flags, ",")
}
