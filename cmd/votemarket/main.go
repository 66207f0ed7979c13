// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

var apiFlags = []cli.Flag{
	apiAddrFlag,
	apiCorsFlag,
	apiTimeoutFlag,
	apiLogsLimitFlag,
	apiCacheSizeFlag,
	apiSlowQueriesThresholdFlag,
	enableAPILogsFlag,
	enableMetricsFlag,
	enableAdminFlag,
	adminAddrFlag,
}

func main() {
	// flags read their EnvVar while parsing, so the env file goes first
	if err := loadEnvFile(os.Getenv("VOTEMARKET_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := cli.App{
		Version:   fullVersion(),
		Name:      "votemarket",
		Usage:     "Vote incentive market node",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: append([]cli.Flag{
			dataDirFlag,
			genesisFlag,
			cacheFlag,
			skipLogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			ntpServerFlag,
		}, apiFlags...),
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "single node for test & dev with a movable clock",
				Flags: append([]cli.Flag{
					dataDirFlag,
					genesisFlag,
					persistFlag,
					timeShiftFlag,
					skipLogsFlag,
					verbosityFlag,
					jsonLogsFlag,
				}, apiFlags...),
				Action: soloAction,
			},
			{
				Name:  "merkle",
				Usage: "build and check vote distribution trees",
				Subcommands: []cli.Command{
					{
						Name:   "build",
						Usage:  "build the tree and proofs of a distribution",
						Flags:  []cli.Flag{inputFlag, outputFlag},
						Action: merkleBuildAction,
					},
					{
						Name:   "verify",
						Usage:  "rebuild a distribution and diff it against a stored tree",
						Flags:  []cli.Flag{inputFlag, treeFlag},
						Action: merkleVerifyAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
