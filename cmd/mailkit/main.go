// Package main is the entry point for the mailkit command-line tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shineum/mailkit/internal/config"
	"github.com/shineum/mailkit/internal/email"
	"github.com/shineum/mailkit/internal/provider"
	"github.com/shineum/mailkit/internal/provider/ses"
	smtpprovider "github.com/shineum/mailkit/internal/provider/smtp"
	"github.com/shineum/mailkit/internal/provider/stdout"
	"github.com/shineum/mailkit/internal/template"
)

var (
	flagConfig     string
	flagServer     string
	flagPort       int
	flagUser       string
	flagPass       string
	flagUseTLS     bool
	flagUseSSL     bool
	flagTimeout    int
	flagMaxRetries int
	flagProvider   string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "mailkit",
	Short:         "Send emails from the command line",
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a simple email",
	RunE:  runSend,
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Render a template and send the result",
	RunE:  runTemplate,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the SMTP connection",
	RunE:  runTest,
}

var (
	sendTo          []string
	sendCc          []string
	sendBcc         []string
	sendSubject     string
	sendBody        string
	sendHTML        bool
	sendReplyTo     string
	sendAttachments []string
	sendDryRun      bool

	tmplName    string
	tmplTo      []string
	tmplContext string
	tmplDir     string
	tmplSubject string
	tmplDryRun  bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "path to YAML configuration file")
	pf.StringVar(&flagServer, "smtp-server", "", "SMTP server hostname")
	pf.IntVar(&flagPort, "smtp-port", 0, "SMTP server port")
	pf.StringVar(&flagUser, "smtp-user", "", "SMTP username")
	pf.StringVar(&flagPass, "smtp-pass", "", "SMTP password")
	pf.BoolVar(&flagUseTLS, "use-tls", true, "upgrade the connection with STARTTLS")
	pf.BoolVar(&flagUseSSL, "use-ssl", false, "connect with implicit TLS")
	pf.IntVar(&flagTimeout, "timeout", 0, "connection timeout in seconds")
	pf.IntVar(&flagMaxRetries, "max-retries", 0, "retry limit for transient transport failures")
	pf.StringVar(&flagProvider, "provider", "", "delivery backend: smtp, ses, or stdout")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	sf := sendCmd.Flags()
	sf.StringSliceVarP(&sendTo, "to", "t", nil, "recipient email address (repeatable)")
	sf.StringSliceVar(&sendCc, "cc", nil, "cc email address (repeatable)")
	sf.StringSliceVar(&sendBcc, "bcc", nil, "bcc email address (repeatable)")
	sf.StringVarP(&sendSubject, "subject", "s", "", "email subject")
	sf.StringVarP(&sendBody, "body", "b", "", "email body")
	sf.BoolVar(&sendHTML, "html", false, "send as HTML email")
	sf.StringVar(&sendReplyTo, "reply-to", "", "reply-to address")
	sf.StringSliceVarP(&sendAttachments, "attach", "a", nil, "attachment file path (repeatable)")
	sf.BoolVar(&sendDryRun, "dry-run", false, "print the message instead of sending it")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("subject")
	sendCmd.MarkFlagRequired("body")

	tf := templateCmd.Flags()
	tf.StringVarP(&tmplName, "template", "t", "", "template file name")
	tf.StringSliceVar(&tmplTo, "to", nil, "recipient email address (repeatable)")
	tf.StringVar(&tmplContext, "context", "", "JSON context data")
	tf.StringVar(&tmplDir, "template-dir", "", "template directory")
	tf.StringVar(&tmplSubject, "subject-template", "", "inline subject template")
	tf.BoolVar(&tmplDryRun, "dry-run", false, "print the message instead of sending it")
	templateCmd.MarkFlagRequired("template")
	templateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(testCmd)
}

func main() {
	// A local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the layered configuration: defaults, environment,
// explicit flags, then the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	params := config.Params{
		Server:     flagServer,
		Port:       flagPort,
		User:       flagUser,
		Pass:       flagPass,
		Timeout:    flagTimeout,
		MaxRetries: flagMaxRetries,
		Provider:   flagProvider,
	}
	// Pointer booleans carry "flag was set" so an explicit false is not
	// mistaken for absence.
	if cmd.Flags().Changed("use-tls") {
		params.UseTLS = &flagUseTLS
	}
	if cmd.Flags().Changed("use-ssl") {
		params.UseSSL = &flagUseSSL
	}

	cfg, err := config.Load(flagConfig, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.LogLevel)
	return cfg, nil
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	if flagVerbose {
		level = "debug"
	}

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery backend from configuration, with
// dry-run forcing the stdout provider.
func selectProvider(cfg *config.Config, dryRun bool) (provider.Provider, error) {
	if dryRun {
		return stdout.New(), nil
	}

	switch cfg.Provider {
	case "", "smtp":
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("SMTP configuration not found: %w", err)
		}
		return smtpprovider.New(cfg, slog.Default()), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("SES provider selected but ses.region and ses.sender are required")
		}
		return ses.New(context.Background(), ses.ProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Sender:          cfg.SES.Sender,
			MaxRetries:      cfg.MaxRetries,
		}, slog.Default())

	case "stdout":
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	prov, err := selectProvider(cfg, sendDryRun)
	if err != nil {
		return err
	}

	msg := &email.Message{
		To:      sendTo,
		Cc:      sendCc,
		Bcc:     sendBcc,
		Subject: sendSubject,
		Body:    sendBody,
		HTML:    sendHTML,
		ReplyTo: sendReplyTo,
	}
	for _, path := range sendAttachments {
		msg.Attachments = append(msg.Attachments, email.Attachment{Path: path})
	}

	result := prov.Send(cmd.Context(), msg)
	if !result.Success {
		return fmt.Errorf("failed to send email: %s", result.Error)
	}

	fmt.Println("Email sent successfully!")
	if len(result.Recipients) > 0 {
		fmt.Printf("Sent to: %s\n", strings.Join(result.Recipients, ", "))
	}
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	templateContext := map[string]any{}
	if tmplContext != "" {
		if err := json.Unmarshal([]byte(tmplContext), &templateContext); err != nil {
			return fmt.Errorf("invalid JSON context data: %w", err)
		}
	}

	dir := tmplDir
	if dir == "" {
		dir = cfg.TemplateDir
	}

	subject, body, err := template.New(dir).RenderHTMLEmail(tmplName, templateContext, tmplSubject)
	if err != nil {
		return fmt.Errorf("template error: %w", err)
	}

	prov, err := selectProvider(cfg, tmplDryRun)
	if err != nil {
		return err
	}

	result := prov.Send(cmd.Context(), &email.Message{
		To:           tmplTo,
		Subject:      subject,
		Body:         body,
		HTML:         true,
		TemplateData: templateContext,
	})
	if !result.Success {
		return fmt.Errorf("failed to send template email: %s", result.Error)
	}

	fmt.Println("Template email sent successfully!")
	if len(result.Recipients) > 0 {
		fmt.Printf("Sent to: %s\n", strings.Join(result.Recipients, ", "))
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("SMTP configuration not found: %w", err)
	}

	fmt.Println("Testing SMTP connection...")

	m := smtpprovider.New(cfg, slog.Default()).Mailer()
	if !m.Connect() {
		return fmt.Errorf("SMTP connection failed")
	}
	m.Close()

	fmt.Println("SMTP connection successful!")
	return nil
}
