package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/spotdeck/spotdeck/pkg/deck"
)

// supportedOrders lists every order the generator accepts.
var supportedOrders = []int{2, 3, 5, 7}

// verifyCommand creates the verify command for checking deck construction.
func (c *CLI) verifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [order]",
		Short: "Verify the matching property of generated decks",
		Long: `Verify the matching property of generated decks.

For the given order (or all supported orders when omitted), the command
generates the deck and exhaustively checks that every pair of cards shares
exactly one symbol.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders := supportedOrders
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid order %q", args[0])
				}
				orders = []int{n}
			}
			return c.runVerify(loggerFromContext(cmd.Context()), orders)
		},
	}

	return cmd
}

// runVerify generates and checks each requested order.
func (c *CLI) runVerify(logger *log.Logger, orders []int) error {
	for _, n := range orders {
		p := newProgress(logger)

		cards, err := deck.Generate(n)
		if err != nil {
			printError("Order %d: %v", n, err)
			return err
		}
		if err := deck.Verify(cards); err != nil {
			printError("Order %d: %v", n, err)
			return err
		}

		pairs := len(cards) * (len(cards) - 1) / 2
		p.done(fmt.Sprintf("Verified order %d: %d cards, %d symbols per card, %d pairs checked",
			n, len(cards), deck.CardSize(n), pairs))
		printSuccess("Order %d holds: every pair of %d cards shares exactly one symbol", n, len(cards))
	}
	return nil
}
