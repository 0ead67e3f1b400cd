package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"patchconv/blofeld"
	"patchconv/patchdoc"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the conversion tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info("starting patchconv MCP server")
			if err := server.ServeStdio(a.mcpServer()); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

func (a *app) mcpServer() *server.MCPServer {
	s := server.NewMCPServer(
		"patchconv",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("patchconv_list-targets",
		mcp.WithDescription("Lists the synths generic patches can be converted onto."),
	), a.listTargetsTool)

	s.AddTool(mcp.NewTool("patchconv_describe-target",
		mcp.WithDescription("Returns the module template of a target synth as a generic patch YAML document."),
		mcp.WithString("target", mcp.Required(), mcp.Description("The target synth (e.g., blofeld).")),
	), a.describeTargetTool)

	s.AddTool(mcp.NewTool("patchconv_convert",
		mcp.WithDescription("Converts a generic patch document onto a target synth. Returns the converted patch and a JSON summary of the module mapping."),
		mcp.WithString("target", mcp.Required(), mcp.Description("The target synth (e.g., blofeld).")),
		mcp.WithString("patch", mcp.Required(), mcp.Description("The generic patch document, YAML or JSON.")),
	), a.convertTool)

	s.AddTool(mcp.NewTool("patchconv_encode-sysex",
		mcp.WithDescription("Converts a generic patch document onto the Blofeld and returns its sound dump as hex encoded SysEx."),
		mcp.WithString("patch", mcp.Required(), mcp.Description("The generic patch document, YAML or JSON.")),
		mcp.WithString("bank", mcp.Description("The bank to address (A, B, ..., H). Omit for the edit buffer.")),
		mcp.WithNumber("program", mcp.Description("The program number (1-128).")),
	), a.encodeSysexTool)

	s.AddTool(mcp.NewTool("patchconv_import-sysex",
		mcp.WithDescription("Reads a hex encoded Blofeld sound dump and returns it as a generic patch YAML document."),
		mcp.WithString("sysex", mcp.Required(), mcp.Description("The SNDD message, hex encoded, whitespace allowed.")),
	), a.importSysexTool)

	return s
}

type targetInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SynthVersion string `json:"synth_generic_version"`
	Modules      int    `json:"modules"`
	Slots        int    `json:"matrix_slots"`
}

func (a *app) listTargetsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a.log.Debug("[mcp] handling list targets request")

	var infos []targetInfo
	for _, n := range targetNames() {
		t := targets[n]
		p := t.Template()
		infos = append(infos, targetInfo{
			Name:         t.Name,
			Description:  t.Description,
			SynthVersion: p.SynthVersion,
			Modules:      len(p.Modules()),
			Slots:        len(p.Matrix().Slots()),
		})
	}
	asJSON, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal targets to JSON: %w", err)
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func (a *app) describeTargetTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.log.Info("[mcp] handling describe target request", "target", name)

	t, err := findTarget(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := patchdoc.FromPatch(t.Template()).WriteYAML(&buf); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (a *app) convertTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := request.RequireString("patch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.log.Info("[mcp] handling convert request", "target", name, "bytes", len(doc))

	src, err := readPatch(strings.NewReader(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, _, err := a.convert(src, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	if err := patchdoc.FromResult(res).WriteYAML(&buf); err != nil {
		return nil, fmt.Errorf("failed to write converted patch: %w", err)
	}
	summary, err := json.MarshalIndent(res.Summary(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary to JSON: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(buf.String()),
			mcp.NewTextContent(string(summary)),
		},
	}, nil
}

func (a *app) encodeSysexTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("patch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dest := a.cfg.Blofeld
	dest.Bank = request.GetString("bank", dest.Bank)
	dest.Program = request.GetInt("program", dest.Program)
	a.log.Info("[mcp] handling encode sysex request", "bank", dest.Bank, "program", dest.Program)

	src, err := readPatch(strings.NewReader(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, t, err := a.convert(src, "blofeld")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := t.Sysex(res.Target, dest)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.ToUpper(hex.EncodeToString(data))), nil
}

func (a *app) importSysexTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("sysex")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.log.Info("[mcp] handling import sysex request")

	data, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid hex: %v", err)), nil
	}
	s, loc, err := blofeld.ParseSNDD(midi.Message(data))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := blofeld.Import(s)
	if err != nil {
		return nil, fmt.Errorf("failed to import sound: %w", err)
	}
	p.Bank = loc.String()

	var buf bytes.Buffer
	if err := patchdoc.FromPatch(p).WriteYAML(&buf); err != nil {
		return nil, fmt.Errorf("failed to write patch: %w", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}
