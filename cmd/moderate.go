package cmd

import (
	"fmt"
	"io"
	"nutrition-catalog/cmd/config"
	"nutrition-catalog/domain"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newModerateCmd() *cobra.Command {
	var moderator domain.Identity

	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Review pending food submissions",
		Long: `Lists, approves and rejects pending submissions. The acting identity given
with --as or --as-email must be on the MODERATOR_IDS or MODERATOR_EMAILS list.`,
	}
	cmd.PersistentFlags().StringVar(&moderator.ID, "as", "", "Moderator user id")
	cmd.PersistentFlags().StringVar(&moderator.Email, "as-email", "", "Moderator email")

	// withVerification opens the backends and checks the acting moderator.
	withVerification := func(run func(cmd *cobra.Command, svc *config.Services, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			backends, closeBackends, err := config.OpenBackends(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackends()
			svc := config.NewServices(backends)
			defer svc.Assets.Close()

			if !svc.Verification.IsModerator(moderator) {
				return domain.ErrNotModerator
			}
			return run(cmd, svc, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending submissions, newest first",
		RunE: withVerification(func(cmd *cobra.Command, svc *config.Services, _ []string) error {
			subs, err := svc.Verification.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			return printSubmissions(cmd.OutOrStdout(), subs)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <submission-id>",
		Short: "Approve a submission and publish it to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: withVerification(func(cmd *cobra.Command, svc *config.Services, args []string) error {
			rec, err := svc.Verification.Approve(cmd.Context(), args[0], moderator)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "approved %s as %s (%s)\n", args[0], rec.Item.ID, rec.Item.Name)
			return err
		}),
	})

	var reason string
	reject := &cobra.Command{
		Use:   "reject <submission-id>",
		Short: "Reject a submission",
		Args:  cobra.ExactArgs(1),
		RunE: withVerification(func(cmd *cobra.Command, svc *config.Services, args []string) error {
			sub, err := svc.Verification.Reject(cmd.Context(), args[0], moderator, reason)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rejected %s (%s)\n", sub.ID(), sub.Item.Name)
			return err
		}),
	}
	reject.Flags().StringVarP(&reason, "reason", "r", "", "Reason shown to the submitter")
	cmd.AddCommand(reject)

	return cmd
}

func printSubmissions(out io.Writer, subs []domain.PendingSubmission) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKCAL\tSERVING\tOWNER\tCREATED")
	for _, sub := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.0fg\t%s\t%s\n",
			sub.ID(), sub.Item.Name, sub.Item.Category, sub.Item.Calories,
			sub.Item.ServingSizeGrams, sub.OwnerEmail, sub.CreatedAt.Format(time.DateTime))
	}
	return w.Flush()
}
