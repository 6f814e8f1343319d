package tools

import "encoding/json"

/*
RichToolDescription is serialized into the MCP tool description so that the
calling model sees when to use a tool and what it does besides answering.
*/
type RichToolDescription struct {
	Description string `json:"description"`
	UseWhen     string `json:"use_when"`
	SideEffects string `json:"side_effects,omitempty"`
}

func (d RichToolDescription) String() string {
	buf, err := json.Marshal(d)
	if err != nil {
		return d.Description
	}

	return string(buf)
}
