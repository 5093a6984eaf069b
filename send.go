package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shyamjith/shyamjith-dev/internal/config"
	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/observability"
)

var sendForm contact.Form

// sendCmd pushes one message through the configured provider. It is the
// quickest way to check provider credentials without opening a browser.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Deliver one contact message through the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Encoding)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		sender, err := loadSender(cfg, logger)
		if err != nil {
			return fmt.Errorf("configuring contact provider: %w", err)
		}
		sub, err := contact.NewSubmitter(sender, contact.Config{
			Recipient:     cfg.Contact.Recipient,
			SubjectPrefix: cfg.Contact.SubjectPrefix,
		}, contact.WithLogger(logger))
		if err != nil {
			return err
		}

		res, err := sub.SubmitForm(cmd.Context(), sendForm)

		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				logger.Error("invalid field", zap.String("field", field), zap.String("reason", msg))
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", res.Notice.Title, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Notice.Title, res.Notice.Description)
		return nil
	},
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendForm.Name, "name", "", "sender name")
	f.StringVar(&sendForm.Email, "email", "", "sender email address")
	f.StringVar(&sendForm.Subject, "subject", "", "message subject")
	f.StringVar(&sendForm.Message, "message", "", "message body")
	rootCmd.AddCommand(sendCmd)
}
