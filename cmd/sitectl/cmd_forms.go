package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"destinpq/internal/domain"
	"destinpq/internal/forms"
	"destinpq/internal/util"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the catalog sync endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = time.Duration(a.cfg.Auth.TokenExpiryMinutes) * time.Minute
			}
			token, err := util.GenerateToken(a.cfg.Auth.SecretKey, operator, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "sitectl", "operator name recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default ACCESS_TOKEN_EXPIRE_MINUTES)")
	return cmd
}

type submitOutput struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

func newContactCmd(a *app) *cobra.Command {
	var (
		site   string
		mobile bool
		s      domain.ContactSubmission
	)
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Submit the contact form",
		RunE: func(cmd *cobra.Command, args []string) error {
			surface := forms.Desktop
			if mobile {
				surface = forms.Mobile
			}
			res, err := a.formsClient(site).SubmitContact(cmd.Context(), s, surface)
			if err != nil {
				return submitError(err)
			}
			return printJSON(cmd.OutOrStdout(), submitOutput{Success: true, MessageID: res.MessageID})
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site base URL (default SITE_URL)")
	cmd.Flags().BoolVar(&mobile, "mobile", false, "submit as the mobile site's form")
	cmd.Flags().StringVar(&s.Name, "name", "", "your name")
	cmd.Flags().StringVar(&s.Email, "email", "", "your email address")
	cmd.Flags().StringVar(&s.Company, "company", "", "company (optional)")
	cmd.Flags().StringVar(&s.Message, "message", "", "message")
	return cmd
}

func newCallCmd(a *app) *cobra.Command {
	var (
		site string
		r    domain.CallSchedulingRequest
	)
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Submit the call-scheduling form",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.formsClient(site).ScheduleCall(cmd.Context(), r)
			if err != nil {
				return submitError(err)
			}
			return printJSON(cmd.OutOrStdout(), submitOutput{Success: true, MessageID: res.MessageID})
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site base URL (default SITE_URL)")
	cmd.Flags().StringVar(&r.Name, "name", "", "your name")
	cmd.Flags().StringVar(&r.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&r.Email, "email", "", "your email address")
	cmd.Flags().StringVar(&r.PreferredDate, "date", "", "preferred date")
	cmd.Flags().StringVar(&r.PreferredTime, "time", "", "preferred time")
	cmd.Flags().StringVar(&r.Notes, "notes", "", "additional notes (optional)")
	return cmd
}

func (a *app) formsClient(site string) *forms.Client {
	if site == "" {
		site = a.cfg.App.SiteURL
	}
	return forms.NewClient(site, nil, a.logger)
}

// submitError surfaces the message a visitor would have seen.
func submitError(err error) error {
	var se *forms.SubmitError
	if errors.As(err, &se) {
		return errors.New(se.Message)
	}
	return err
}
