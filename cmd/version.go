package cmd

import (
	"runtime"
	runtimedebug "runtime/debug"

	"github.com/spf13/cobra"

	"protocol-cli/cmd/utils"
)

// Version will be set by build flags during release builds
var Version = "dev"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Protocol CLI",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.OutputInfo("Protocol CLI %s (%s, %s/%s)", formatVersionForDisplay(Version), buildRevision(), runtime.GOOS, runtime.GOARCH)
	},
}

// formatVersionForDisplay adds a "v" prefix to release versions.
func formatVersionForDisplay(v string) string {
	if v == "" || v == "dev" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

func buildRevision() string {
	info, ok := runtimedebug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return info.GoVersion
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
