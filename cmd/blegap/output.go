package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/srg/blegap/internal/bledb"
	"github.com/srg/blegap/internal/config"
	"github.com/srg/blegap/internal/gap"
)

// RSSI thresholds for coloring, in dBm.
const (
	rssiStrong = -60
	rssiWeak   = -80
)

// colorEnabled reports whether w is an interactive terminal that accepts
// ANSI colors.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type palette struct {
	strong, medium, weak, dim *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		strong: color.New(color.FgGreen),
		medium: color.New(color.FgYellow),
		weak:   color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.strong, p.medium, p.weak, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) rssi(rssi int) string {
	s := fmt.Sprintf("%d dBm", rssi)
	switch {
	case rssi >= rssiStrong:
		return p.strong.Sprint(s)
	case rssi >= rssiWeak:
		return p.medium.Sprint(s)
	default:
		return p.weak.Sprint(s)
	}
}

// peerJSON is the JSON shape of a merged scan report.
type peerJSON struct {
	Address          string    `json:"address"`
	Name             string    `json:"name,omitempty"`
	RSSI             int       `json:"rssi"`
	Services         []string  `json:"services,omitempty"`
	ManufacturerData string    `json:"manufacturer_data,omitempty"`
	Manufacturer     string    `json:"manufacturer,omitempty"`
	TxPower          *int      `json:"tx_power,omitempty"`
	ScanResponse     bool      `json:"scan_response"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}

func toPeerJSON(r *gap.ScanReport) peerJSON {
	out := peerJSON{
		Address:      r.Address,
		Name:         r.LocalName(),
		RSSI:         r.RSSI,
		Services:     serviceStrings(r),
		ScanResponse: r.PacketType == gap.PacketScanResponse,
		FirstSeen:    r.FirstSeen,
		LastSeen:     r.LastSeen,
	}
	if md := r.Data.ManufacturerData(); len(md) > 0 {
		out.ManufacturerData = hex.EncodeToString(md)
		out.Manufacturer = manufacturerName(r)
	}
	if tx, ok := r.Data.TxPowerLevel(); ok {
		out.TxPower = &tx
	}
	return out
}

func serviceStrings(r *gap.ScanReport) []string {
	uuids := r.Data.Services()
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, u.String())
	}
	return out
}

func manufacturerName(r *gap.ScanReport) string {
	id, ok := r.Data.CompanyID()
	if !ok {
		return ""
	}
	if name := bledb.LookupCompany(id); name != "" {
		return name
	}
	return fmt.Sprintf("0x%04x", id)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

// renderPeers writes the merged peers either as a table or as a JSON array.
func renderPeers(w io.Writer, peers []*gap.ScanReport, format string, colors bool) error {
	if format == config.FormatJSON {
		list := make([]peerJSON, len(peers))
		for i, p := range peers {
			list[i] = toPeerJSON(p)
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	}

	if len(peers) == 0 {
		_, err := fmt.Fprintln(w, "No devices discovered")
		return err
	}

	pal := newPalette(colors)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tRSSI\tMANUFACTURER\tSERVICES\tLAST SEEN")
	fmt.Fprintln(tw, strings.Repeat("-", 80))

	for _, p := range peers {
		name := p.LocalName()
		if name == "" {
			name = pal.dim.Sprint("(unknown)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s ago\n",
			p.Address,
			truncate(name, 24),
			pal.rssi(p.RSSI),
			truncate(manufacturerName(p), 20),
			truncate(strings.Join(serviceStrings(p), ","), 30),
			time.Since(p.LastSeen).Truncate(time.Second),
		)
	}
	return tw.Flush()
}
