/*
Package cmd implements the command-line interface of the job finder MCP server.
*/
package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/jobfinder-mcp/pkg/config"
	"github.com/theapemachine/jobfinder-mcp/pkg/service"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the service,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "jobfinder-mcp"
	cfgFile     string
	envFile     string

	rootCmd = &cobra.Command{
		Use:     projectName,
		Short:   "A token-gated MCP server with job finding tools",
		Long:    longRoot,
		Version: service.Version,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"dotenv file holding AUTH_TOKEN and MY_NUMBER",
	)
}

/*
initConfig loads the dotenv file, makes sure a default config file exists in
the user's home directory and reads it into viper.
*/
func initConfig() {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("failed to load env file", "path", envFile, "error", err)
	}

	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if err := writeConfig(); err != nil {
			log.Warn("could not write default config", "error", err)
		}

		home, _ := os.UserHomeDir()
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(filepath.Join(home, "."+projectName))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal("failed to read config", "error", err)
		}

		log.Debug("no config file found, using defaults")
	}
}

/*
writeConfig writes the embedded default config file to the user's home
directory, unless one is already there.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := filepath.Join(home, "."+projectName)
	fullPath := filepath.Join(configDir, "config.yml")

	if CheckFileExists(fullPath) {
		return nil
	}

	if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if fh, err = embedded.Open("cfg/config.yml"); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}
	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)
	return nil
}

func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

var longRoot = `
jobfinder-mcp serves job finding tools over the Model Context Protocol.

Every call must carry the shared secret from AUTH_TOKEN as a bearer token.
The validate tool answers with MY_NUMBER, job_finder analyzes, fetches or
searches job postings, and make_img_black_and_white converts images.
`
