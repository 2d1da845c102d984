package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"boiler_collector/internal/logger"
	"boiler_collector/internal/repository"
	"boiler_collector/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "API user management",
}

var addUserCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an API user",
	Args:  cobra.NoArgs,
	RunE:  runAddUser,
}

func init() {
	userCmd.AddCommand(addUserCmd)
	rootCmd.AddCommand(userCmd)
}

func runAddUser(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), "Enter username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	password, err := readPassword(cmd, "Enter password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	confirm, err := readPassword(cmd, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	db, err := openDB(log, cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repository.NewRepository(db)
	auth := service.NewAuthService(repos.Auth, service.AuthConfig{SigningKey: cfg.Auth.SigningKey})
	id, err := auth.SignUp(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id %d)\n", username, id)
	return nil
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
