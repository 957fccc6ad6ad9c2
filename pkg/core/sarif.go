package core

import (
	"fmt"
	"strings"

	"github.com/haya14busa/go-sarif/sarif"
	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// fingerprint hashes what identifies a finding across runs: the rule, the
// file, the message and the text of the reported line. Line numbers are left
// out so that findings survive unrelated edits above them.
func fingerprint(fields *TemplateFields) (string, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(fields.Snippet, "\n")
	for _, part := range []string{fields.Type, fields.Filepath, fields.Message, strings.TrimSpace(line)} {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}

func sarifLevel(severity string) *sarif.Level {
	switch severity {
	case "error":
		return sarif.Error.Ptr()
	case "info":
		return sarif.Note.Ptr()
	default:
		return sarif.Warning.Ptr()
	}
}

func toResult(fields *TemplateFields) (sarif.Result, error) {
	fp, err := fingerprint(fields)
	if err != nil {
		return sarif.Result{}, err
	}
	message := fields.Message
	snippet := fields.Snippet
	return sarif.Result{
		RuleID: sarif.String(fields.Type),
		Level:  sarifLevel(fields.Severity),
		Message: sarif.Message{
			Text: &message,
		},
		PartialFingerprints: map[string]string{
			"scanalyzer/v1": fp,
		},
		Locations: []sarif.Location{
			{
				PhysicalLocation: &sarif.PhysicalLocation{
					ArtifactLocation: &sarif.ArtifactLocation{
						URI: sarif.String(fields.Filepath),
					},
					Region: &sarif.Region{
						StartLine:   sarif.Int64(int64(fields.Line)),
						StartColumn: sarif.Int64(int64(fields.Column)),
						EndColumn:   sarif.Int64(int64(fields.EndColumn + 1)),
						Snippet: &sarif.ArtifactContent{
							Text: &snippet,
						},
					},
				},
			},
		},
	}, nil
}

func toSARIF(fields []*TemplateFields) (string, error) {
	s := &sarif.Sarif{
		Version: sarif.The210,
		Schema:  sarif.String("https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.4.json"),
		Runs: []sarif.Run{
			{
				Tool: sarif.Tool{
					Driver: sarif.ToolComponent{
						Name: "scanalyzer",
					},
				},
			},
		},
	}
	for _, f := range fields {
		r, err := toResult(f)
		if err != nil {
			return "", err
		}
		s.Runs[0].Results = append(s.Runs[0].Results, r)
	}
	json, err := s.Marshal()
	if err != nil {
		return "", err
	}
	return string(json), nil
}
