package main

import (
	"bytes"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"

	"github.com/srg/blegap/internal/driver/goble"
	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/testutils"
)

// Test device addresses for consistent fake device identification
const (
	TestDeviceAddress1 = "00:00:00:00:00:01"
	TestDeviceAddress2 = "00:00:00:00:00:02"
)

// CommandTestSuite runs commands against a fake go-ble device installed
// through goble.DeviceFactory.
type CommandTestSuite struct {
	suite.Suite

	Device        *testutils.FakeDevice
	FactoryParams *gap.ScanParameters
	FactoryErr    error

	originalFactory func(gap.ScanParameters) (goble.Device, error)
}

func (s *CommandTestSuite) SetupTest() {
	s.Device = &testutils.FakeDevice{}
	s.FactoryParams = nil
	s.FactoryErr = nil

	s.originalFactory = goble.DeviceFactory
	goble.DeviceFactory = func(params gap.ScanParameters) (goble.Device, error) {
		s.FactoryParams = &params
		if s.FactoryErr != nil {
			return nil, s.FactoryErr
		}
		return s.Device, nil
	}

	resetFlags(rootCmd)
}

func (s *CommandTestSuite) TearDownTest() {
	goble.DeviceFactory = s.originalFactory
}

// ExecuteCommand runs the root command with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default
// so state does not leak between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
