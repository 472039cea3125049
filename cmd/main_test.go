package cmd

import (
	"os"
	"testing"

	"protocol-cli/cmd/utils"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "protocol-cmd-test")
	if err != nil {
		panic(err)
	}
	os.Setenv(utils.DataDirEnv, dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
