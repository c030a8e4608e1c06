// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/daviszhen/pipegen/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initRootFlags()
	initRunCmd()
	initExplainCmd()
	initBenchCmd()
}

var pipegenCfg = util.DefaultConfig()

///root cmd

var cfgFile string

var info = "compile sql into produce/consume pipelines and run them"
var RootCmd = &cobra.Command{
	Use:          "pipegen",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use pipegen --help or -h")
	},
}

func initRootFlags() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file. defaults to pipegen.toml in . or etc")
	flags.String("paradigm", util.ParadigmVectorized, "rowwise or vectorized")
	flags.Int("batch_size", util.DefaultVectorSize, "rows per batch")
	flags.String("log_level", "info", "debug, info, warn or error")
	flags.Bool("print_plan", false, "print the logical plan")
	flags.Bool("print_program", false, "print the generated program")
	flags.BoolVar(&color.NoColor, "no_color", color.NoColor, "disable colored output")

	viper.BindPFlag("engine.paradigm", flags.Lookup("paradigm"))
	viper.BindPFlag("engine.batchSize", flags.Lookup("batch_size"))
	viper.BindPFlag("log.level", flags.Lookup("log_level"))
	viper.BindPFlag("debug.printPlan", flags.Lookup("print_plan"))
	viper.BindPFlag("debug.printProgram", flags.Lookup("print_program"))
}

// initOptions lays flags and config file values read by viper over the
// decoded config.
func initOptions() error {
	if viper.IsSet("engine.paradigm") {
		pipegenCfg.Engine.Paradigm = viper.GetString("engine.paradigm")
	}
	if viper.IsSet("engine.batchSize") {
		pipegenCfg.Engine.BatchSize = viper.GetInt("engine.batchSize")
	}
	if viper.IsSet("log.level") {
		pipegenCfg.Log.Level = viper.GetString("log.level")
	}
	pipegenCfg.Debug.PrintPlan = viper.GetBool("debug.printPlan")
	pipegenCfg.Debug.PrintProgram = viper.GetBool("debug.printProgram")
	if viper.IsSet("debug.count") {
		pipegenCfg.Debug.Count = viper.GetInt("debug.count")
	}
	if viper.IsSet("debug.parallel") {
		pipegenCfg.Debug.Parallel = viper.GetInt("debug.parallel")
	}
	util.InitLogger(pipegenCfg.Log.Level)
	return pipegenCfg.Validate()
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "pipegen.toml"

func findConfig() string {
	if cfgFile != "" {
		return cfgFile
	}
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			return fpath
		}
	}
	return ""
}

func loadConfig() {
	fpath := findConfig()
	if fpath == "" {
		util.Debug("no config file, use defaults")
		return
	}
	cfg, err := util.LoadConfig(fpath)
	if err != nil {
		util.Error("load config file failed",
			zap.String("fpath", fpath),
			zap.Error(err))
		os.Exit(1)
	}
	pipegenCfg = cfg
	viper.SetConfigFile(fpath)
	if err = viper.ReadInConfig(); err != nil {
		util.Error("viper load config file failed",
			zap.String("fpath", fpath),
			zap.Error(err))
		os.Exit(1)
	}
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
