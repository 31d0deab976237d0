package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// decksCommand creates the decks management command.
func (c *CLI) decksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Manage saved decks",
	}

	cmd.AddCommand(c.decksListCommand())
	cmd.AddCommand(c.decksDeleteCommand())

	return cmd
}

// decksListCommand creates the "decks list" subcommand.
func (c *CLI) decksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore()
			if err != nil {
				return fmt.Errorf("open deck store: %w", err)
			}
			defer st.Close()

			decks, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				printInfo("No saved decks")
				printNextStep("Generate one", "spotdeck generate --theme \"farm animals\"")
				return nil
			}

			for _, d := range decks {
				printKeyValue(d.CreatedAt.Format("2006-01-02"), fmt.Sprintf("%s  %s (order %d)", d.ID, d.Name, d.Order))
			}
			return nil
		},
	}
}

// decksDeleteCommand creates the "decks delete" subcommand.
func (c *CLI) decksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore()
			if err != nil {
				return fmt.Errorf("open deck store: %w", err)
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted deck %s", args[0])
			return nil
		},
	}
}
