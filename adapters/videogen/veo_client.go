package videogen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Phrases the provider uses when a prompt is blocked before any work starts.
var submitRejectionMarkers = []string{"responsible ai", "safety", "prohibited", "sensitive", "usage guidelines"}

type veoClient struct {
	http     *http.Client
	modelURL string
	log      logger.Logger
}

// NewDefaultHTTPClient authenticates with Application Default Credentials.
func NewDefaultHTTPClient(ctx context.Context) (*http.Client, error) {
	client, err := google.DefaultClient(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("load google default credentials: %w", err)
	}
	client.Timeout = 60 * time.Second
	return client, nil
}

func NewVeoClient(cfg config.Config, httpClient *http.Client, log logger.Logger) (service.VideoGenerator, error) {
	v := cfg.VideoAPI
	if v.Project == "" || v.Model == "" {
		return nil, fmt.Errorf("video api project and model must be configured")
	}
	base := v.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", v.Location)
	}
	modelURL := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s",
		strings.TrimRight(base, "/"), v.Project, v.Location, v.Model)

	log.Info("Video generation client initialized", zap.String("model", v.Model), zap.String("location", v.Location))
	return &veoClient{http: httpClient, modelURL: modelURL, log: log}, nil
}

type veoImage struct {
	GcsURI   string `json:"gcsUri"`
	MimeType string `json:"mimeType"`
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoParameters struct {
	AspectRatio     string `json:"aspectRatio"`
	DurationSeconds int    `json:"durationSeconds"`
	SampleCount     int    `json:"sampleCount"`
	Seed            uint32 `json:"seed"`
	StorageURI      string `json:"storageUri,omitempty"`
	GenerateAudio   bool   `json:"generateAudio"`
}

type veoRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type veoVideo struct {
	GcsURI             string `json:"gcsUri"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoOperation struct {
	Name     string     `json:"name"`
	Done     bool       `json:"done"`
	Error    *veoStatus `json:"error"`
	Response *struct {
		RaiMediaFilteredCount   int        `json:"raiMediaFilteredCount"`
		RaiMediaFilteredReasons []string   `json:"raiMediaFilteredReasons"`
		Videos                  []veoVideo `json:"videos"`
	} `json:"response"`
}

func (c *veoClient) Submit(ctx context.Context, req service.VideoRequest) (*service.SubmitResult, error) {
	body := veoRequest{
		Instances: []veoInstance{{Prompt: req.Prompt}},
		Parameters: veoParameters{
			AspectRatio:     req.AspectRatio,
			DurationSeconds: req.DurationSeconds,
			SampleCount:     1,
			Seed:            req.Seed,
			StorageURI:      req.OutputURI,
			GenerateAudio:   true,
		},
	}
	if req.ReferenceImageURI != "" {
		body.Instances[0].Image = &veoImage{GcsURI: req.ReferenceImageURI, MimeType: "image/png"}
	}

	var op veoOperation
	status, apiErr, err := c.post(ctx, c.modelURL+":predictLongRunning", body, &op)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		if status == http.StatusBadRequest && isRejection(apiErr.Message) {
			return &service.SubmitResult{Rejected: true, Reasons: []string{apiErr.Message}}, nil
		}
		return nil, fmt.Errorf("predictLongRunning: %d %s", status, apiErr.Message)
	}
	if op.Name == "" {
		return nil, fmt.Errorf("predictLongRunning returned no operation name")
	}
	return &service.SubmitResult{OperationHandle: op.Name}, nil
}

func (c *veoClient) Poll(ctx context.Context, operationHandle string) (*service.PollResult, error) {
	var op veoOperation
	status, apiErr, err := c.post(ctx, c.modelURL+":fetchPredictOperation", map[string]string{"operationName": operationHandle}, &op)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, fmt.Errorf("fetchPredictOperation: %d %s", status, apiErr.Message)
	}
	if !op.Done {
		return &service.PollResult{}, nil
	}
	if op.Error != nil {
		if isRejection(op.Error.Message) {
			return &service.PollResult{Done: true, Rejected: true, Reasons: []string{op.Error.Message}}, nil
		}
		return &service.PollResult{Done: true, Error: op.Error.Message}, nil
	}
	if op.Response == nil {
		return &service.PollResult{Done: true, Error: "operation finished without a response"}, nil
	}

	res := op.Response
	if len(res.Videos) == 0 {
		if res.RaiMediaFilteredCount > 0 {
			return &service.PollResult{Done: true, Rejected: true, Reasons: res.RaiMediaFilteredReasons}, nil
		}
		return &service.PollResult{Done: true, Error: "operation finished without videos"}, nil
	}

	v := res.Videos[0]
	if v.GcsURI != "" {
		return &service.PollResult{Done: true, RemoteURI: v.GcsURI}, nil
	}
	payload, err := base64.StdEncoding.DecodeString(v.BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("decode inline video: %w", err)
	}
	return &service.PollResult{Done: true, Payload: payload}, nil
}

// post returns a transport error, or the provider's error body with its status code.
func (c *veoClient) post(ctx context.Context, url string, in any, out any) (int, *veoStatus, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("video api request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read video api response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error *veoStatus `json:"error"`
		}
		if json.Unmarshal(respBytes, &envelope) == nil && envelope.Error != nil {
			return resp.StatusCode, envelope.Error, nil
		}
		return resp.StatusCode, &veoStatus{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBytes))}, nil
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("parse video api response: %w", err)
	}
	return resp.StatusCode, nil, nil
}

func isRejection(message string) bool {
	m := strings.ToLower(message)
	for _, marker := range submitRejectionMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}
