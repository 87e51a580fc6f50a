package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"dokomiru/models"
)

// systemPrompt constrains the completion to a two-key JSON object with at
// most three Japanese and three English titles, excluding loosely-matched
// non-movie entities. The model is told to return empty arrays when unsure.
const systemPrompt = `あなたは映画タイトル抽出の専門家です。
以下の検索結果から、クエリの内容に最も関連性が高い映画タイトルを抽出してください。

【出力ルール】
- JSON形式 {"titlesJa": [], "titlesEn": []} でのみ出力
- 邦題（日本語タイトル）と原題（英語タイトル）をそれぞれ3件以内
- タイトルに検索語が含まれるだけの無関係な映画は除外
- アニメ、TV番組、漫画、俳優名、シリーズ名だけの抽出は禁止
- 可能であれば邦題と原題をペアで出す
- 見つからない場合は空配列で返す`

const keywordsPrompt = `あなたは映画検索のためのキーワード抽出アシスタントです。入力された文章を映画検索用のキーワードに分解してください。出力はカンマ区切りのキーワードのみ返してください。`

// Service extracts candidate movie titles from web-search snippets through
// an OpenAI-compatible chat-completions endpoint.
type Service struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

func NewService(apiKey, baseURL, model string, httpc *http.Client) *Service {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Service{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   httpc,
	}
}

func (s *Service) isConfigured() bool {
	return s != nil && s.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *Service) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("completion failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return payload.Choices[0].Message.Content, nil
}

// Extract asks the LLM for candidate titles matching the query and filters
// the answer against the query's keywords. Any upstream or parse failure
// degrades to empty candidate lists.
func (s *Service) Extract(ctx context.Context, snippets []models.SearchSnippet, originalQuery string) models.TitleCandidates {
	if !s.isConfigured() {
		log.Printf("[extract] completion api not configured, skipping extraction")
		return models.TitleCandidates{}
	}
	if len(snippets) == 0 {
		return models.TitleCandidates{}
	}

	items, err := json.MarshalIndent(snippets, "", "  ")
	if err != nil {
		return models.TitleCandidates{}
	}
	userPrompt := fmt.Sprintf("クエリ: %s\n検索結果: %s", originalQuery, items)

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
		Temperature: 0.2,
		MaxTokens:   500,
	}

	content, err := s.complete(ctx, req)
	if err != nil {
		log.Printf("[extract] completion failed: %v", err)
		return models.TitleCandidates{}
	}

	var parsed models.TitleCandidates
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		log.Printf("[extract] json parse failed: %v", err)
		return models.TitleCandidates{}
	}

	return models.TitleCandidates{
		TitlesJa: validateTitles(parsed.TitlesJa, originalQuery),
		TitlesEn: validateTitles(parsed.TitlesEn, originalQuery),
	}
}

// Keywords decomposes free text into comma-separated movie-search keywords.
// Unlike Extract this surfaces failures: the endpoint it backs has no
// degrade-to-empty contract.
func (s *Service) Keywords(ctx context.Context, text string) (string, error) {
	if !s.isConfigured() {
		return "", errors.New("completion api key not configured")
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: keywordsPrompt},
			{Role: "user", Content: text},
		},
	}

	content, err := s.complete(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// validateTitles keeps a title only when it shares at least one keyword with
// the query. Queries yielding two or fewer keywords pass every title: short
// descriptive queries carry too little signal to filter on.
func validateTitles(titles []string, query string) []string {
	keywords := extractKeywords(query)
	kept := make([]string, 0, len(titles))
	for _, title := range titles {
		if len(keywords) <= 2 {
			kept = append(kept, title)
			continue
		}
		lower := strings.ToLower(title)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				kept = append(kept, title)
				break
			}
		}
	}
	return kept
}

var keywordStoplist = map[string]struct{}{
	"映画": {},
	"こと": {},
	"する": {},
}

var punctReplacer = strings.NewReplacer("。", " ", "、", " ", "！", " ", "？", " ", "・", " ")

// extractKeywords splits a query on Japanese punctuation and whitespace,
// dropping trivial tokens and generic stopwords. The length check is
// byte-based so a single kanji ("猫") still counts as a keyword while a
// stray ASCII character does not.
func extractKeywords(query string) []string {
	var keywords []string
	for _, w := range strings.Fields(punctReplacer.Replace(query)) {
		if len(w) <= 1 {
			continue
		}
		if _, stop := keywordStoplist[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
