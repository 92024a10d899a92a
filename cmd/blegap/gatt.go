package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/blegap/internal/bledb"
	"github.com/srg/blegap/internal/config"
	"github.com/srg/blegap/internal/driver/goble"
	"github.com/srg/blegap/internal/gatt"
)

// gattCmd represents the gatt command
var gattCmd = &cobra.Command{
	Use:   "gatt <address>",
	Short: "Discover the GATT attribute table of a device",
	Long: `Connect to a BLE device, discover its services, characteristics and
descriptors, print the attribute table and disconnect.`,
	Args: cobra.ExactArgs(1),
	RunE: runGatt,
}

var (
	gattConnectTimeout time.Duration
	gattFormat         string
)

func init() {
	gattCmd.Flags().DurationVar(&gattConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	gattCmd.Flags().StringVarP(&gattFormat, "format", "f", config.FormatTable, "Output format (table, json)")
}

func runGatt(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("connect-timeout") {
		cfg.ConnectTimeout = gattConnectTimeout
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = gattFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	params, err := cfg.ScanParameters()
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	drv, err := goble.Open(params, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close BLE device")
		}
	}()

	ctx := cmd.Context()
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	db, err := drv.Discover(ctx, args[0])
	if err != nil {
		return err
	}
	return renderDatabase(cmd.OutOrStdout(), db, cfg.OutputFormat)
}

type descriptorJSON struct {
	UUID   string `json:"uuid"`
	Handle uint16 `json:"handle"`
	Name   string `json:"name,omitempty"`
}

type characteristicJSON struct {
	UUID              string           `json:"uuid"`
	Name              string           `json:"name,omitempty"`
	Properties        string           `json:"properties"`
	DeclarationHandle uint16           `json:"declaration_handle"`
	ValueHandle       uint16           `json:"value_handle"`
	CCCDHandle        uint16           `json:"cccd_handle,omitempty"`
	Descriptors       []descriptorJSON `json:"descriptors,omitempty"`
}

type serviceJSON struct {
	UUID            string               `json:"uuid"`
	Name            string               `json:"name,omitempty"`
	Type            string               `json:"type"`
	StartHandle     uint16               `json:"start_handle"`
	EndHandle       uint16               `json:"end_handle"`
	Characteristics []characteristicJSON `json:"characteristics"`
}

type databaseJSON struct {
	Peer     string        `json:"peer"`
	Services []serviceJSON `json:"services"`
}

func toDatabaseJSON(db *gatt.Database) databaseJSON {
	out := databaseJSON{Peer: db.Peer, Services: []serviceJSON{}}
	for _, s := range db.Services() {
		sj := serviceJSON{
			UUID:            s.UUID.String(),
			Name:            bledb.LookupService(s.UUID.String()),
			Type:            s.Type.String(),
			StartHandle:     uint16(s.StartHandle),
			EndHandle:       uint16(s.EndHandle),
			Characteristics: []characteristicJSON{},
		}
		for _, c := range s.Characteristics() {
			cj := characteristicJSON{
				UUID:              c.UUID.String(),
				Name:              bledb.LookupCharacteristic(c.UUID.String()),
				Properties:        c.Properties.String(),
				DeclarationHandle: uint16(c.DeclarationHandle),
				ValueHandle:       uint16(c.ValueHandle),
				CCCDHandle:        uint16(c.CCCDHandle),
			}
			for _, d := range c.Descriptors() {
				dj := descriptorJSON{UUID: d.UUID.String(), Handle: uint16(d.Handle), Name: descriptorName(d)}
				cj.Descriptors = append(cj.Descriptors, dj)
			}
			sj.Characteristics = append(sj.Characteristics, cj)
		}
		out.Services = append(out.Services, sj)
	}
	return out
}

// renderDatabase prints the attribute table as an indented tree or as JSON.
func renderDatabase(w io.Writer, db *gatt.Database, format string) error {
	if format == config.FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDatabaseJSON(db))
	}

	fmt.Fprintf(w, "Peer %s\n", db.Peer)
	services := db.Services()
	if len(services) == 0 {
		_, err := fmt.Fprintln(w, "  No services discovered")
		return err
	}
	for _, s := range services {
		fmt.Fprintf(w, "  Service %s (%s) [%s-%s]%s\n", s.UUID, s.Type, s.StartHandle, s.EndHandle,
			withSpace(bledb.LookupService(s.UUID.String())))
		for _, c := range s.Characteristics() {
			fmt.Fprintf(w, "    Characteristic %s %s decl=%s value=%s", c.UUID, c.Properties, c.DeclarationHandle, c.ValueHandle)
			if c.CCCDHandle.Valid() {
				fmt.Fprintf(w, " cccd=%s", c.CCCDHandle)
			}
			fmt.Fprintln(w, withSpace(bledb.LookupCharacteristic(c.UUID.String())))
			for _, d := range c.Descriptors() {
				fmt.Fprintf(w, "      Descriptor %s %s%s\n", d.UUID, d.Handle, withSpace(descriptorName(d)))
			}
		}
	}
	return nil
}

func descriptorName(d *gatt.Descriptor) string {
	if t, ok := d.Type(); ok {
		return t.String()
	}
	return bledb.LookupDescriptor(d.UUID.String())
}

func withSpace(name string) string {
	if name == "" {
		return ""
	}
	return " " + name
}
