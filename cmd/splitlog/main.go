// Command splitlog reads tagged lines from stdin and writes them through a
// splitlog Router in batch mode.
//
// Each input line is "TAG message", for example:
//
//	ERROR disk full
//	SQL SELECT 1
//
// Lines without a tag are written as INFO.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"splitlog"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "splitlog:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, stderr io.Writer) error {
	flags := pflag.NewFlagSet("splitlog", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a YAML config file")
	flags.String("path", splitlog.DefaultPath, "directory the log files are written to")
	flags.Int64("file-size", splitlog.DefaultFileSize, "rotation threshold in bytes")
	flags.Bool("separate-sql", true, "write SQL-tagged lines to the SQL log file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	v := splitlog.NewViper()
	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := bindFlags(v, flags); err != nil {
		return err
	}
	cfg, err := splitlog.ConfigFromViper(v)
	if err != nil {
		return err
	}
	cfg.CLI = true

	router, err := splitlog.New(cfg)
	if err != nil {
		return err
	}
	defer router.Close()

	batch, err := readBatch(in)
	if err != nil {
		return err
	}
	return router.Save(batch, true)
}

// bindFlags lets explicitly set flags override the config file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flag, key := range map[string]string{
		"path":         "path",
		"file-size":    "file_size",
		"separate-sql": "separate_sql",
	} {
		if !flags.Changed(flag) {
			continue
		}
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func readBatch(in io.Reader) (splitlog.Batch, error) {
	batch := make(splitlog.Batch)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tag, msg, ok := strings.Cut(line, " ")
		if !ok || !isTag(tag) {
			tag, msg = "INFO", line
		}
		batch[tag] = append(batch[tag], strings.TrimSpace(msg))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return batch, nil
}

// isTag reports whether s is an upper-case word such as ERROR or SQL.
func isTag(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return s != ""
}
