package tools

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
)

// Generator turns a prompt into model text. provider.GoogleProvider is one.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const updateResumePrompt = `Update the following LaTeX resume to be optimized for the target job profile.
Focus on improving the specified sections for better ATS compatibility.

Existing LaTeX Resume:
` + "```latex" + `
%s
` + "```" + `

Target Job Profile: %s

Sections to Improve: %s

Please provide the full, updated LaTeX code for the resume.`

const atsScorePrompt = `Analyze the following resume and provide an ATS score.

Resume (LaTeX or plain text):
` + "```" + `
%s
` + "```" + `

Target Role: %s
Experience Level: %s

Please provide the following:
1. A general ATS score out of 100.
2. An ATS score based on the target role and experience level, out of 100.
3. A list of specific, actionable suggestions for improvement.`

// requireAll reads every named string argument, failing on the first missing one.
func requireAll(req mcp.CallToolRequest, names ...string) ([]any, error) {
	values := make([]any, 0, len(names))

	for _, name := range names {
		value, err := req.RequireString(name)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessagef("%v", err)
		}

		values = append(values, value)
	}

	return values, nil
}

/*
promptTool is a tool that fills a prompt template from its arguments and
returns what the model makes of it.
*/
type promptTool struct {
	generator Generator
	template  string
	params    []string
}

func (pt *promptTool) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values, err := requireAll(req, pt.params...)
	if err != nil {
		return nil, err
	}

	text, err := pt.generator.Generate(ctx, fmt.Sprintf(pt.template, values...))
	if err != nil {
		log.FromContext(ctx).Error("generation failed", "tool", req.Params.Name, "error", err)
		return nil, errors.Internal(err)
	}

	return mcp.NewToolResultText(text), nil
}

// UpdateResumeTool rewrites a LaTeX resume for a target job profile.
type UpdateResumeTool struct {
	promptTool
}

func NewUpdateResumeTool(generator Generator) *UpdateResumeTool {
	return &UpdateResumeTool{promptTool{
		generator: generator,
		template:  updateResumePrompt,
		params:    []string{"existing_resume_latex", "target_job_profile", "sections_to_improve"},
	}}
}

var updateResumeDescription = RichToolDescription{
	Description: "Update an existing LaTeX resume to better match a target job profile.",
	UseWhen:     "Use this when the user wants their resume tailored to a specific role.",
	SideEffects: "Returns the full updated LaTeX source.",
}

func (ut *UpdateResumeTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"update_resume",
		mcp.WithDescription(updateResumeDescription.String()),
		mcp.WithString("existing_resume_latex",
			mcp.Description("The current resume as LaTeX source"),
			mcp.Required(),
		),
		mcp.WithString("target_job_profile",
			mcp.Description("The role or job description to optimize for"),
			mcp.Required(),
		),
		mcp.WithString("sections_to_improve",
			mcp.Description("Which sections to focus on, e.g. experience, skills"),
			mcp.Required(),
		),
	)
}

func (ut *UpdateResumeTool) Handle(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return ut.handle(ctx, req)
}

// ATSScoreTool scores a resume for applicant tracking systems.
type ATSScoreTool struct {
	promptTool
}

func NewATSScoreTool(generator Generator) *ATSScoreTool {
	return &ATSScoreTool{promptTool{
		generator: generator,
		template:  atsScorePrompt,
		params:    []string{"resume_text", "target_role", "experience_level"},
	}}
}

var atsScoreDescription = RichToolDescription{
	Description: "Score a resume for ATS compatibility and suggest improvements.",
	UseWhen:     "Use this when the user asks how well their resume will pass automated screening.",
	SideEffects: "Returns a general score, a role-specific score and suggestions.",
}

func (at *ATSScoreTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"ats_score_checker",
		mcp.WithDescription(atsScoreDescription.String()),
		mcp.WithString("resume_text",
			mcp.Description("The resume as LaTeX or plain text"),
			mcp.Required(),
		),
		mcp.WithString("target_role",
			mcp.Description("The role the resume targets"),
			mcp.Required(),
		),
		mcp.WithString("experience_level",
			mcp.Description("The candidate's experience level, e.g. junior, senior"),
			mcp.Required(),
		),
	)
}

func (at *ATSScoreTool) Handle(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return at.handle(ctx, req)
}
