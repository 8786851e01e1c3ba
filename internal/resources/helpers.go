package resources

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func textResource(uri, mimeType, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return textResource(uri, "text/plain", fmt.Sprintf("Error: %s", message))
}
