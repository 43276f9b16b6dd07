/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/partition"
	"github.com/notargets/fvmesh/pipeline"
	"github.com/notargets/fvmesh/types"
)

type Prep struct {
	ICFile  string
	Ranks   int // overrides the input file when positive
	Profile bool
	Workers int
}

// PrepCmd represents the prep command
var PrepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Partition a block mesh and compute topology, metrics and face interpolation weights",
	Long: `
Builds a structured block mesh from the input file, partitions it across the requested number of ranks and
runs the preprocessing on every rank, then prints a per rank summary.

fvmesh prep -I input.yaml [--ranks N] [--profile]`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		pr := &Prep{}
		if pr.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		pr.Ranks = viper.GetInt("ranks")
		pr.Workers = viper.GetInt("workers")
		pr.Profile, _ = cmd.Flags().GetBool("profile")
		var ip *InputParameters.PrepParameters
		if ip, err = processPrepInput(pr); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if pr.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
		}
		logger := newLogger(os.Stderr, viper.GetString("logLevel"))
		if _, err = RunPrep(context.Background(), pr, ip, logger, os.Stdout); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(PrepCmd)
	PrepCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Ranks\n\t- Interpolation\n\t- Block")
	PrepCmd.Flags().IntP("ranks", "r", 0, "number of ranks, overrides the input file")
	PrepCmd.Flags().IntP("workers", "w", 0, "goroutines per rank computing face weights, 0 uses all cores")
	PrepCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	_ = viper.BindPFlag("ranks", PrepCmd.Flags().Lookup("ranks"))
	_ = viper.BindPFlag("workers", PrepCmd.Flags().Lookup("workers"))
}

const examplePrepFile = `
########################################
Title: "Test Block"
Ranks: 2
Partitioner: graph # Can be "block", or "metis" when built with the metis tag
Interpolation: wtli # Can be "idw" or "simple"
MaxStencilSize: 12
Block:
  Shape: hex # Can be "tet"
  Cells: [8, 4, 4]
  Lengths: [2.0, 1.0, 1.0]
########################################
`

func processPrepInput(pr *Prep) (ip *InputParameters.PrepParameters, err error) {
	if len(pr.ICFile) == 0 {
		fmt.Printf("Example File:%s\n", examplePrepFile)
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
		return
	}
	var data []byte
	if data, err = os.ReadFile(pr.ICFile); err != nil {
		return
	}
	ip = &InputParameters.PrepParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, err
	}
	return
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// RunPrep builds the block described by ip, runs the pipeline and writes the per rank summary to w
func RunPrep(ctx context.Context, pr *Prep, ip *InputParameters.PrepParameters, logger *slog.Logger,
	w io.Writer) (results []*pipeline.Result, err error) {
	if pr.Ranks > 0 {
		ip.Ranks = pr.Ranks
	}
	if pr.Workers > 0 {
		ip.Workers = pr.Workers
	}
	ip.Print(w)
	var (
		cfg  = pipeline.Config{Ranks: ip.Ranks, Logger: logger}
		spec mesh.BlockSpec
		gm   *mesh.GlobalMesh
	)
	if cfg.Interpolation, err = ip.InterpolationConfig(); err != nil {
		return
	}
	if cfg.Partitioner, err = partition.New(ip.Partitioner); err != nil {
		return
	}
	if spec, err = ip.BlockSpec(); err != nil {
		return
	}
	if gm, err = mesh.NewBlock(spec); err != nil {
		return
	}
	if results, err = pipeline.Run(ctx, gm, cfg); err != nil {
		return
	}
	for _, res := range results {
		res.Mesh.PrintStatistics(w)
		for _, class := range []types.Classification{types.Tetra, types.Tri, types.Line, types.Point, types.Unclassified} {
			if n := res.Report.Counts[class]; n != 0 {
				fmt.Fprintf(w, "    %s faces: %d\n", class, n)
			}
		}
	}
	return
}
