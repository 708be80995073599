// Package reporting renders reconciliation results and hands them to the report sinks.
package reporting

import (
	"bytes"
	"html/template"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

// VideoName is the attachment name used for the replay video fragment
const VideoName = "Video"

var videoTemplate = template.Must(template.New("video").Parse(
	`<div id="mediaplayer{{.SessionID}}" style="margin-left:5px; overflow:hidden;">` +
		`<video width="100%" height="100%" controls="controls">` +
		`<source src="{{.URL}}" type="video/mp4">` +
		`</video></div>`))

// RenderVideo builds the embeddable video player fragment for a session.
// It returns nil when there is no video to show.
func RenderVideo(videoURL, sessionID string) *types.Fragment {
	if videoURL == "" {
		return nil
	}
	var buf bytes.Buffer
	err := videoTemplate.Execute(&buf, struct {
		SessionID string
		URL       string
	}{sessionID, videoURL})
	if err != nil {
		return nil
	}
	return &types.Fragment{
		SessionID: sessionID,
		Name:      VideoName,
		Markup:    buf.String(),
	}
}
