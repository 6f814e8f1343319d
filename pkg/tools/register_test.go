package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	srv := server.NewMCPServer("test", "1.0", server.WithToolCapabilities(true))

	Register(srv,
		NewJobFinderTool(NewDispatcher(&stubFetcher{}, &stubSearcher{}, "ua", 5)),
		NewValidateTool("1"),
		NewGrayscaleTool(),
		NewUpdateResumeTool(&stubGenerator{}),
		NewATSScoreTool(&stubGenerator{}),
	)

	resp := srv.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`,
	))

	buf, err := json.Marshal(resp)
	require.NoError(t, err)

	var body struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(buf, &body))

	names := make([]string, 0, len(body.Result.Tools))
	for _, tool := range body.Result.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"job_finder", "validate", "make_img_black_and_white", "update_resume", "ats_score_checker",
	}, names)
}
