package api

import "time"

// createOrgRequest is the body of POST /api/v1/orgs.
type createOrgRequest struct {
	Name string `json:"name"`
}

// createChannelRequest is the body of POST /api/v1/orgs/{orgId}/channels.
type createChannelRequest struct {
	Name         string   `json:"name"`
	DataLocation string   `json:"dataLocation,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// editChannelRequest is the body of PUT /api/v1/orgs/{orgId}/channels/{uuid}.
type editChannelRequest struct {
	Name         string   `json:"name,omitempty"`
	DataLocation string   `json:"dataLocation,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// createVersionRequest is the body of POST .../channels/{uuid}/versions.
// Content is the YAML payload as text.
type createVersionRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// versionResponse is the read-back shape of a version, content decrypted.
type versionResponse struct {
	UUID        string    `json:"uuid"`
	ChannelID   string    `json:"channelId"`
	ChannelName string    `json:"channelName"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Created     time.Time `json:"created"`
}
