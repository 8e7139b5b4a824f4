package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/scenekit/feature"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 Classifier 实现。
// 适用于以独立服务部署的 GBDT / XGBoost 模型。
type RPCModel struct {
	Endpoint string // 例如 "http://localhost:8500/predict"
	Timeout  time.Duration
	Client   *http.Client
	Version  string
}

func NewRPCModel(endpoint string, timeout time.Duration) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RPCModel{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (m *RPCModel) Name() string {
	return TypeRPC
}

type rpcRequest struct {
	Columns   []string    `json:"columns"`
	Instances [][]float64 `json:"instances"`
}

type rpcResponse struct {
	Scores []float64 `json:"scores"`
}

// PredictProba 调用远程模型服务进行批量预测。
// 请求格式（JSON）：
//
//	{"columns": ["age", ...], "instances": [[34, ...], ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.15, 0.72, ...]}
func (m *RPCModel) PredictProba(ctx context.Context, x *feature.Matrix) ([]float64, error) {
	if m.Client == nil {
		m.Client = &http.Client{Timeout: m.Timeout}
	}
	if x == nil || len(x.Rows) == 0 {
		return []float64{}, nil
	}

	jsonData, err := json.Marshal(rpcRequest{Columns: x.Columns, Instances: x.Rows})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Scores) != len(x.Rows) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(x.Rows), len(result.Scores))
	}
	return result.Scores, nil
}

type rpcFile struct {
	Type      string `json:"type"`
	Version   string `json:"version"`
	Endpoint  string `json:"endpoint"`
	TimeoutMS int    `json:"timeout_ms"`
}

func decodeRPC(data []byte) (*RPCModel, error) {
	var raw rpcFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Endpoint == "" {
		return nil, fmt.Errorf("rpc model: endpoint is required")
	}
	m := NewRPCModel(raw.Endpoint, time.Duration(raw.TimeoutMS)*time.Millisecond)
	m.Version = raw.Version
	return m, nil
}
