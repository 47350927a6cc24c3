package api

import (
	"errors"
	"net/http"

	"github.com/relayops/channelstore/pkg/channels"
	"github.com/relayops/channelstore/pkg/httputil"
	"github.com/relayops/channelstore/pkg/store"
)

// createOrg handles POST /api/v1/orgs. Creation is idempotent by name: a
// repeat request returns the existing organization.
func (s *Server) createOrg(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "an org name must be specified")
		return
	}

	org, err := s.orgs.CreateLocalOrg(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, org)
}

// getOrg handles GET /api/v1/orgs/{orgId}
func (s *Server) getOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	org, err := s.orgs.GetOrg(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "org not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, org)
}

// createChannel handles POST /api/v1/orgs/{orgId}/channels
func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	var req createChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	channel, err := s.channels.AddChannel(r.Context(), subject(r), orgID, req.Name, req.DataLocation, req.Tags)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, channel)
}

// listChannels handles GET /api/v1/orgs/{orgId}/channels. A tags query
// parameter switches to tag filtering.
func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}

	var (
		result []*store.Channel
		err    error
	)
	if tags := httputil.ParseQueryStrings(r, "tags"); len(tags) > 0 {
		result, err = s.channels.ListChannelsByTags(r.Context(), subject(r), orgID, tags)
	} else {
		result, err = s.channels.ListChannels(r.Context(), subject(r), orgID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if result == nil {
		result = []*store.Channel{}
	}
	httputil.WriteSuccess(w, result)
}

// getChannel handles GET /api/v1/orgs/{orgId}/channels/{uuid}
func (s *Server) getChannel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	channelUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}

	channel, err := s.channels.GetChannel(r.Context(), subject(r), orgID, channelUUID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, channel)
}

// getChannelByName handles GET /api/v1/orgs/{orgId}/channels/byName/{name}
func (s *Server) getChannelByName(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	channel, err := s.channels.GetChannelByName(r.Context(), subject(r), orgID, name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, channel)
}

// editChannel handles PUT /api/v1/orgs/{orgId}/channels/{uuid}
func (s *Server) editChannel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	channelUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}
	var req editChannelRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.channels.EditChannel(r.Context(), subject(r), orgID, channelUUID, req.Name, req.DataLocation, req.Tags); err != nil {
		writeDomainError(w, r, err)
		return
	}
	channel, err := s.channels.GetChannel(r.Context(), subject(r), orgID, channelUUID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, channel)
}

// removeChannel handles DELETE /api/v1/orgs/{orgId}/channels/{uuid}
func (s *Server) removeChannel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	channelUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}

	if err := s.channels.RemoveChannel(r.Context(), subject(r), orgID, channelUUID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// createVersion handles POST /api/v1/orgs/{orgId}/channels/{uuid}/versions
func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	channelUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}
	var req createVersionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	version, err := s.channels.AddChannelVersion(r.Context(), subject(r), orgID, channelUUID,
		req.Name, req.Type, []byte(req.Content), req.Description)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, version)
}

// getVersion handles GET /api/v1/orgs/{orgId}/channels/{channel}/versions/{version}.
// Both path segments accept a uuid or a name.
func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	channelRef, ok := httputil.ParsePathStringOrError(w, r, "channel")
	if !ok {
		return
	}
	versionRef, ok := httputil.ParsePathStringOrError(w, r, "version")
	if !ok {
		return
	}

	query := channels.VersionQuery{
		ChannelUUID: channelRef,
		VersionUUID: versionRef,
		VersionName: versionRef,
	}
	version, err := s.channels.GetChannelVersion(r.Context(), subject(r), orgID, query)
	if err != nil {
		// A uuid miss may be a name lookup, retry with the ref as a name.
		if channels.IsNotFound(err) && query.ChannelName == "" {
			query = channels.VersionQuery{ChannelName: channelRef, VersionUUID: versionRef, VersionName: versionRef}
			version, err = s.channels.GetChannelVersion(r.Context(), subject(r), orgID, query)
		}
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	httputil.WriteSuccess(w, versionResponse{
		UUID:        version.UUID,
		ChannelID:   version.ChannelID,
		ChannelName: version.ChannelName,
		Name:        version.Name,
		Description: version.Description,
		Type:        version.Type,
		Content:     string(version.Content),
		Created:     version.Created,
	})
}

// removeVersion handles DELETE /api/v1/orgs/{orgId}/versions/{uuid}
func (s *Server) removeVersion(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "orgId")
	if !ok {
		return
	}
	versionUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}

	if err := s.channels.RemoveChannelVersion(r.Context(), subject(r), orgID, versionUUID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
