package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/interviewer/internal/handler"
	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/llm"
	"github.com/pavelanni/interviewer/internal/llm/prompts"
	"github.com/pavelanni/interviewer/internal/media"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/questions"
	"github.com/pavelanni/interviewer/internal/store"
)

const sessionCleanupInterval = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewer",
		Short: "Mock technical interviews with AI feedback on recorded answers",
	}

	serve := serveCmd()
	root.AddCommand(serve, questionsCmd(), analyzeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `interviewer --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP interview server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "interviewer.db", "SQLite database path")
	f.String("upload-dir", "", "Directory for in-flight recordings (default: system temp dir)")
	f.Int64("max-upload-mb", 100, "Maximum size of one recording in MiB")
	f.StringP("lang", "l", "en", "Default response language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /interview)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.StringSlice("cors-origins", nil, "Origins allowed to call the API from a browser (repeatable)")
	addQuestionsFlag(cmd)
	addAnalysisFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the question bank",
		RunE:  runQuestions,
	}
	f := cmd.Flags()
	f.StringP("format", "f", "yaml", "Output format (yaml, json)")
	f.StringP("subject", "s", "", "Only print this subject")
	addQuestionsFlag(cmd)
	addLogFlags(cmd)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Evaluate a recorded answer from a local file",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.StringP("subject", "s", "", "Subject of the question (required)")
	f.StringP("difficulty", "d", string(model.DifficultyEasy), "Difficulty (Easy, Medium, Hard)")
	f.String("question", "", "Question that was answered (must be in the chosen cell; default: random from the bank)")
	f.String("mime-type", "", "MIME type of the recording (default: from file extension)")
	_ = cmd.MarkFlagRequired("subject")
	addQuestionsFlag(cmd)
	addAnalysisFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func addQuestionsFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("questions", "q", "", "Question bank file (YAML or JSON; default: built-in bank)")
}

func addAnalysisFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("ai-provider", string(llm.ProviderGemini), "Analysis backend (gemini, openai)")
	f.String("gemini-key", "", "Gemini API key (or set INTERVIEWER_GEMINI_KEY)")
	f.String("gemini-model", llm.DefaultGeminiModel, "Gemini model name")
	f.String("openai-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.String("openai-key", "", "API key for the OpenAI-compatible backend")
	f.String("openai-model", "gpt-4o-mini", "Chat model for the OpenAI-compatible backend")
	f.String("transcribe-model", "whisper-1", "Transcription model for the OpenAI-compatible backend")
	f.Float32("temperature", 0.3, "Sampling temperature")
	f.Duration("poll-interval", llm.DefaultReadiness.PollInterval, "Delay between processing status polls")
	f.Int("poll-attempts", llm.DefaultReadiness.MaxAttempts, "Maximum processing status polls")
	f.String("readiness", string(llm.ReadinessBestEffort), "What to do when polls run out (best-effort, strict)")
	f.Duration("generate-timeout", 2*time.Minute, "Timeout for one evaluation call (0 = none)")
	f.String("prompt-variant", string(prompts.PromptStandard), "Grading prompt variant (strict, standard, lenient)")
	f.Bool("skip-ping", false, "Do not check the AI backend at startup")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INTERVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("interviewer")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/interviewer")
	v.AddConfigPath("/etc/interviewer")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func loadBank(v *viper.Viper) (*questions.Bank, error) {
	path := v.GetString("questions")
	if path == "" {
		return questions.Default(), nil
	}
	bank, err := questions.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded question bank", "path", path, "subjects", len(bank.Subjects()))
	return bank, nil
}

// analysisSettings is the backend part of the configuration.
type analysisSettings struct {
	provider llm.ProviderConfig
	client   llm.Config
	variant  prompts.PromptVariant
}

func (s analysisSettings) modelName() string {
	if s.provider.Provider == llm.ProviderOpenAI {
		return s.provider.OpenAI.Model
	}
	return s.provider.Gemini.Model
}

func analysisConfig(v *viper.Viper) (analysisSettings, error) {
	var s analysisSettings

	provider := llm.Provider(strings.ToLower(strings.TrimSpace(v.GetString("ai-provider"))))
	temperature := float32(v.GetFloat64("temperature"))
	s.provider = llm.ProviderConfig{
		Provider: provider,
		Gemini: llm.GeminiConfig{
			APIKey:      v.GetString("gemini-key"),
			Model:       v.GetString("gemini-model"),
			Temperature: temperature,
		},
		OpenAI: llm.OpenAIConfig{
			BaseURL:         v.GetString("openai-url"),
			APIKey:          v.GetString("openai-key"),
			Model:           v.GetString("openai-model"),
			TranscribeModel: v.GetString("transcribe-model"),
			Temperature:     temperature,
		},
	}

	readiness := strings.ToLower(strings.TrimSpace(v.GetString("readiness")))
	if !llm.IsValidReadinessMode(readiness) {
		return s, fmt.Errorf("invalid readiness %q (want best-effort or strict)", readiness)
	}
	s.client = llm.Config{
		Readiness: llm.ReadinessPolicy{
			Mode:         llm.ReadinessMode(readiness),
			PollInterval: v.GetDuration("poll-interval"),
			MaxAttempts:  v.GetInt("poll-attempts"),
		},
		GenerateTimeout: v.GetDuration("generate-timeout"),
	}

	variant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid prompt-variant, using standard", "variant", variant)
		variant = string(prompts.PromptStandard)
	}
	s.variant = prompts.PromptVariant(variant)
	return s, nil
}

func newLLMClient(ctx context.Context, v *viper.Viper, s analysisSettings) (*llm.Client, error) {
	svc, err := llm.OpenService(ctx, s.provider)
	if err != nil {
		return nil, fmt.Errorf("create AI backend: %w", err)
	}
	client := llm.New(svc, s.client)
	if v.GetBool("skip-ping") {
		return client, nil
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("AI backend health check: %w", err)
	}
	slog.Info("AI backend OK", "provider", s.provider.Provider, "model", s.modelName())
	return client, nil
}

func uploadDir(v *viper.Viper) string {
	if dir := v.GetString("upload-dir"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "interviewer-uploads")
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	go cleanupSessions(ctx, db)

	bank, err := loadBank(v)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	maxUpload := v.GetInt64("max-upload-mb") << 20
	intake, err := media.NewIntake(uploadDir(v), maxUpload)
	if err != nil {
		return err
	}

	settings, err := analysisConfig(v)
	if err != nil {
		return err
	}
	client, err := newLLMClient(ctx, v, settings)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := db.SetDeploymentInfo(ctx, model.DeploymentInfo{
		Provider:      string(settings.provider.Provider),
		Model:         settings.modelName(),
		PromptVariant: string(settings.variant),
		Readiness:     string(settings.client.Readiness.Mode),
		StartedAt:     time.Now(),
	}); err != nil {
		return fmt.Errorf("record deployment info: %w", err)
	}

	cfg := model.ServerConfig{
		BasePath:       v.GetString("base-path"),
		SecureCookies:  v.GetBool("secure-cookies"),
		MaxUploadBytes: maxUpload,
		AllowedOrigins: v.GetStringSlice("cors-origins"),
	}
	h := handler.New(db, bank, interview.NewOrchestrator(intake, client, settings.variant), cfg)
	basePath := handler.NormalizeBasePath(cfg.BasePath)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("starting server",
		"addr", addr,
		"provider", settings.provider.Provider,
		"model", settings.modelName(),
		"lang", lang,
		"locales", appI18n.Languages(),
		"prompt_variant", settings.variant,
		"readiness", settings.client.Readiness.Mode,
		"poll_attempts", settings.client.Readiness.MaxAttempts,
		"base_path", basePath,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupSessions removes expired auth sessions until ctx is done.
func cleanupSessions(ctx context.Context, db *store.Store) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		n, err := db.CleanupExpiredSessions(ctx)
		if err != nil {
			slog.Warn("failed to clean up expired sessions", "error", err)
		} else if n > 0 {
			slog.Info("removed expired sessions", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	bank, err := loadBank(v)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	table := bank.Table()
	if subj := v.GetString("subject"); subj != "" {
		cell, ok := table[model.Subject(subj)]
		if !ok {
			return fmt.Errorf("unknown subject %q", subj)
		}
		table = questions.Table{model.Subject(subj): cell}
	}
	return writeTable(cmd.OutOrStdout(), table, v.GetString("format"))
}

func writeTable(w io.Writer, table questions.Table, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want yaml or json)", format)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank, err := loadBank(v)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	sess := interview.NewSession("cli", "local")
	if _, err := sess.Configure(bank, model.Subject(v.GetString("subject")), model.Difficulty(v.GetString("difficulty"))); err != nil {
		return fmt.Errorf("%w (subjects: %s)", err, subjectList(bank))
	}
	if q := strings.TrimSpace(v.GetString("question")); q != "" {
		if err := sess.SetQuestion(bank, q); err != nil {
			return fmt.Errorf("--question: %w", err)
		}
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	settings, err := analysisConfig(v)
	if err != nil {
		return err
	}
	client, err := newLLMClient(ctx, v, settings)
	if err != nil {
		return err
	}
	defer client.Close()

	intake, err := media.NewIntake(os.TempDir(), 0)
	if err != nil {
		return err
	}
	slog.Info("analyzing recording", "file", args[0], "question", sess.CurrentQuestion)
	result, err := interview.NewOrchestrator(intake, client, settings.variant).
		RunAnalysis(ctx, sess, f, mimeFromFlagOrName(v.GetString("mime-type"), args[0]))
	if err != nil {
		var e *model.Error
		if errors.As(err, &e) && e.Raw != "" {
			slog.Error("model output", "raw", e.Raw)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func mimeFromFlagOrName(flag, name string) string {
	if flag != "" {
		return flag
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "mp4":
		return "video/mp4"
	case "mov":
		return "video/quicktime"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	}
	return media.DefaultMIMEType
}

func subjectList(bank *questions.Bank) string {
	var names []string
	for _, s := range bank.Subjects() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
