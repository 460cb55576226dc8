package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end to end scenarios")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header for a scenario step in logs
func (s *BaseHTTPSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON sends a JSON body and decodes the JSON response into out.
// Full bodies are logged when E2E_DEBUG_JSON is enabled.
func (s *BaseHTTPSuite) PostJSON(path, token string, body any, out any) int {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.Config.ServerAddr+path, bytes.NewReader(raw))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req, raw, out)
}

// GetJSON performs an authenticated GET and decodes the JSON response into out.
func (s *BaseHTTPSuite) GetJSON(path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet, s.Config.ServerAddr+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req, nil, out)
}

func (s *BaseHTTPSuite) do(req *http.Request, reqBody []byte, out any) int {
	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err, "Failed to reach relay at "+s.Config.ServerAddr)
	defer resp.Body.Close()

	var respBody bytes.Buffer
	_, err = respBody.ReadFrom(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v",
		req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		if len(reqBody) > 0 {
			fmt.Fprintln(&logBuilder, "\nREQUEST:")
			fmt.Fprintln(&logBuilder, string(reqBody))
		}
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, respBody.String())
	}
	s.T().Log(logBuilder.String())

	if out != nil {
		s.Require().NoError(json.Unmarshal(respBody.Bytes(), out))
	}
	return resp.StatusCode
}

// DialWS opens an authenticated live connection to the relay
func (s *BaseHTTPSuite) DialWS(token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.Config.ServerAddr, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	s.Require().NoError(err, "Failed to open live connection")
	return conn
}
