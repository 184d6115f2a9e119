package httpapi

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"horse.fit/agrolingo/internal/language"
	"horse.fit/agrolingo/internal/translation"
)

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	SourceLang string `json:"source_lang"`
	Profile    string `json:"profile"`
}

type translateResponse struct {
	Text       string           `json:"text"`
	Tier       translation.Tier `json:"tier"`
	SourceLang string           `json:"source_lang"`
	TargetLang string           `json:"target_lang"`
	DurationMs float64          `json:"duration_ms"`
}

type batchRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang"`
}

type diagnosisRequest struct {
	Result     map[string]any `json:"result"`
	TargetLang string         `json:"target_lang"`
}

type labelsRequest struct {
	Labels     map[string]string `json:"labels"`
	TargetLang string            `json:"target_lang"`
}

func (s *Server) handleHealth(c echo.Context) error {
	stats := s.translator.Stats()
	return success(c, map[string]any{
		"service":          "agrolingo",
		"time":             time.Now().UTC(),
		"provider":         stats.Provider,
		"remote_available": stats.RemoteAvailable,
	})
}

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"items": s.translator.SupportedLanguages(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	return success(c, s.translator.Stats())
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	fieldErrors := map[string]string{}
	target, err := parseTargetLang(req.TargetLang)
	if err != nil {
		fieldErrors["target_lang"] = err.Error()
	}
	source, err := parseSourceLang(req.SourceLang)
	if err != nil {
		fieldErrors["source_lang"] = err.Error()
	}
	var profile translation.Profile
	if strings.TrimSpace(req.Profile) != "" {
		profile, err = translation.ParseProfile(req.Profile)
		if err != nil {
			fieldErrors["profile"] = err.Error()
		}
	}
	if err := s.checkTextLength(req.Text); err != nil {
		fieldErrors["text"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	out := s.translator.Translate(c.Request().Context(), translation.Request{
		Text:       req.Text,
		SourceLang: source,
		TargetLang: target,
		Profile:    profile,
	})
	if source == "" {
		source = language.English
	}
	return success(c, translateResponse{
		Text:       out.Text,
		Tier:       out.Tier,
		SourceLang: source,
		TargetLang: target,
		DurationMs: float64(out.Duration) / float64(time.Millisecond),
	})
}

func (s *Server) handleTranslateBatch(c echo.Context) error {
	var req batchRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	fieldErrors := map[string]string{}
	target, err := parseTargetLang(req.TargetLang)
	if err != nil {
		fieldErrors["target_lang"] = err.Error()
	}
	source, err := parseSourceLang(req.SourceLang)
	if err != nil {
		fieldErrors["source_lang"] = err.Error()
	}
	switch {
	case len(req.Texts) == 0:
		fieldErrors["texts"] = "is required"
	case len(req.Texts) > s.opts.MaxBatchSize:
		fieldErrors["texts"] = fmt.Sprintf("must contain at most %d items", s.opts.MaxBatchSize)
	default:
		for i, text := range req.Texts {
			if err := s.checkTextLength(text); err != nil {
				fieldErrors[fmt.Sprintf("texts[%d]", i)] = err.Error()
				break
			}
		}
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	items := s.translator.BatchTranslate(c.Request().Context(), req.Texts, target, source)
	return success(c, map[string]any{
		"items":       items,
		"count":       len(items),
		"target_lang": target,
	})
}

func (s *Server) handleTranslateDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	fieldErrors := map[string]string{}
	target, err := parseTargetLang(req.TargetLang)
	if err != nil {
		fieldErrors["target_lang"] = err.Error()
	}
	if req.Result == nil {
		fieldErrors["result"] = "is required"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	result := s.translator.TranslateDiagnosisResult(c.Request().Context(), req.Result, target)
	return success(c, map[string]any{
		"result":      result,
		"target_lang": target,
	})
}

func (s *Server) handleTranslateLabels(c echo.Context) error {
	var req labelsRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	fieldErrors := map[string]string{}
	target, err := parseTargetLang(req.TargetLang)
	if err != nil {
		fieldErrors["target_lang"] = err.Error()
	}
	switch {
	case len(req.Labels) == 0:
		fieldErrors["labels"] = "is required"
	case len(req.Labels) > s.opts.MaxBatchSize:
		fieldErrors["labels"] = fmt.Sprintf("must contain at most %d entries", s.opts.MaxBatchSize)
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	labels := s.translator.TranslateUILabels(c.Request().Context(), req.Labels, target)
	return success(c, map[string]any{
		"labels":      labels,
		"target_lang": target,
	})
}

func (s *Server) handleClearCache(c echo.Context) error {
	if err := s.translator.ClearCache(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("clear translation cache failed")
		return internalError(c, "Failed to clear translation cache")
	}
	return success(c, map[string]any{
		"cleared": true,
	})
}

func (s *Server) checkTextLength(text string) error {
	if utf8.RuneCountInString(text) > s.opts.MaxTextLength {
		return fmt.Errorf("must be at most %d characters", s.opts.MaxTextLength)
	}
	return nil
}

func parseTargetLang(raw string) (string, error) {
	code := language.NormalizeCode(raw)
	if code == "" {
		return "", fmt.Errorf("is required")
	}
	if !language.Supported(code) {
		return "", fmt.Errorf("is not supported")
	}
	return code, nil
}

// parseSourceLang accepts an empty value (English), "auto", or a supported code.
func parseSourceLang(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if strings.EqualFold(trimmed, language.Auto) {
		return language.Auto, nil
	}
	code := language.NormalizeCode(trimmed)
	if !language.Supported(code) {
		return "", fmt.Errorf("is not supported")
	}
	return code, nil
}
