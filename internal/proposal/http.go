// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package proposal provides proposal drafting, review and merge on top of the
rulings engine.

It owns the process-wide base index, the draft store and the HTTP surface
for browsing the rulings corpus, with or without a draft overlay.

# Routing Strategy

  - Public (v1): Read endpoints: cards, groups, references, completion and
    the consistency check, all accepting an optional ?prop= overlay.
  - Restricted (v1): Draft lifecycle and every mutator require
    authentication; edit rights are checked per draft (owner, or any
    category above BASIC).

The handler translates between the web/JSON layer and the domain [Service].
*/
package proposal

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vtes-biased/rulings-website/internal/platform/middleware"
	requestutil "github.com/vtes-biased/rulings-website/internal/platform/request"
	"github.com/vtes-biased/rulings-website/internal/platform/respond"
	"github.com/vtes-biased/rulings-website/internal/platform/validate"
	"github.com/vtes-biased/rulings-website/internal/rulings"
	"github.com/vtes-biased/rulings-website/pkg/pagination"
)

// # Handler Implementation

// defaultCompletionLimit caps name completion results.
const defaultCompletionLimit = 10

// Handler implements the HTTP layer for rulings browsing and proposal
// management.
type Handler struct {
	service *Service
}

// NewHandler constructs a new proposal [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the rulings and proposal
// endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Browsing Endpoints
	router.Get("/complete", handler.complete)
	router.Get("/cards/{id}", handler.getCard)
	router.Get("/groups", handler.listGroups)
	router.Get("/groups/{id}", handler.getGroup)
	router.Get("/references", handler.listReferences)
	router.Post("/references/search", handler.searchReference)
	router.Get("/check", handler.check)
	router.Get("/proposals", handler.listProposals)
	router.Get("/proposals/{id}", handler.getProposal)

	// ## Draft Lifecycle & Mutations (Authenticated)
	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)

		authed.Post("/proposals", handler.startProposal)
		authed.Put("/proposals/{id}", handler.updateProposal)
		authed.Post("/proposals/{id}/submit", handler.submitProposal)
		authed.Post("/proposals/{id}/approve", handler.approveProposal)

		// References
		authed.Post("/proposals/{id}/references", handler.insertReference)
		authed.Put("/proposals/{id}/references/{ref}", handler.updateReference)
		authed.Delete("/proposals/{id}/references/{ref}", handler.deleteReference)

		// Rulings
		authed.Post("/proposals/{id}/rulings/{target}", handler.insertRuling)
		authed.Put("/proposals/{id}/rulings/{target}/{ruling}", handler.updateRuling)
		authed.Delete("/proposals/{id}/rulings/{target}/{ruling}", handler.deleteRuling)
		authed.Post("/proposals/{id}/rulings/{target}/{ruling}/restore", handler.restoreRuling)

		// Groups
		authed.Post("/proposals/{id}/groups", handler.upsertGroup)
		authed.Put("/proposals/{id}/groups/{group}", handler.upsertGroup)
		authed.Delete("/proposals/{id}/groups/{group}", handler.deleteGroup)
		authed.Post("/proposals/{id}/groups/{group}/restore", handler.restoreGroup)
		authed.Post("/proposals/{id}/groups/{group}/cards/{card}/restore", handler.restoreGroupCard)
	})

	return router
}

// overlay extracts the optional ?prop= draft overlay from a read request.
func overlay(request *http.Request) string {
	return request.URL.Query().Get("prop")
}

// # Browsing Endpoints

/*
GET /api/v1/complete.

Description: Card name completion for search boxes, accent and case
insensitive, prefix matches first.

Request:
  - query: string (Partial card name)
  - limit: int (Maximum results, default 10)

Response:
  - 200: []Completion: Label/value pairs
*/
func (handler *Handler) complete(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query().Get("query")
	limit := defaultCompletionLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	respond.OK(writer, handler.service.Complete(query, limit))
}

/*
GET /api/v1/cards/{id}.

Description: Retrieves one card with its rulings, group memberships and the
cards whose rulings mention it. The ?prop= overlay shows a draft's view.

Response:
  - 200: CardView
  - 404: Unknown card
*/
func (handler *Handler) getCard(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Card(request.Context(), overlay(request), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
GET /api/v1/groups.

Response:
  - 200: []Group: Every live group, name sorted, draft entries first
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	groups, err := handler.service.Groups(request.Context(), overlay(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, groups)
}

/*
GET /api/v1/groups/{id}.

Response:
  - 200: GroupView: The group with its direct rulings
  - 404: Unknown or deleted group
*/
func (handler *Handler) getGroup(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Group(request.Context(), overlay(request), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
GET /api/v1/references.

Description: The full reference list runs to a few thousand entries, so it
is served page by page.

Request:
  - page, limit: Query parameters, clamped to sane bounds

Response:
  - 200: []Reference: One page of live references in the resolved view
*/
func (handler *Handler) listReferences(writer http.ResponseWriter, request *http.Request) {
	references, err := handler.service.References(request.Context(), overlay(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	total := len(references)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	respond.Paginated(writer, references[start:end], pagination.NewMeta(params.Page, params.Limit, total))
}

type referenceSearchRequest struct {
	UID string `json:"uid"`
	URL string `json:"url"`
}

/*
POST /api/v1/references/search.

Description: Looks a reference up by uid or url. A VEKN forum url that is
not recorded yet gets its canonical uid computed from the forum post.

Request:
  - uid: string (optional)
  - url: string (optional)

Response:
  - 200: ReferenceSearchResult
  - 400: The forum page holds no valid Rules Director post
  - 404: Nothing matches
*/
func (handler *Handler) searchReference(writer http.ResponseWriter, request *http.Request) {
	var payload referenceSearchRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	result, err := handler.service.SearchReference(request.Context(), overlay(request), payload.UID, payload.URL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

/*
GET /api/v1/check.

Description: Runs the consistency checker over the resolved view and lists
every violation. An empty list means the draft can be approved.

Response:
  - 200: []CheckError
*/
func (handler *Handler) check(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.service.Check(request.Context(), overlay(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if report == nil {
		report = []rulings.CheckError{}
	}
	respond.OK(writer, report)
}

// # Proposal Lifecycle Endpoints

type proposalRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

/*
GET /api/v1/proposals.

Response:
  - 200: []Proposal: Every open draft
*/
func (handler *Handler) listProposals(writer http.ResponseWriter, request *http.Request) {
	proposals, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, proposals)
}

/*
GET /api/v1/proposals/{id}.

Response:
  - 200: Proposal
  - 404: Unknown draft
*/
func (handler *Handler) getProposal(writer http.ResponseWriter, request *http.Request) {
	prop, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, prop)
}

/*
POST /api/v1/proposals.

Request:
  - name: string (optional)
  - description: string (optional)

Response:
  - 201: Proposal: The fresh draft with its uid
*/
func (handler *Handler) startProposal(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload proposalRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	prop, err := handler.service.Start(request.Context(), claims, payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, prop)
}

/*
PUT /api/v1/proposals/{id}.

Request:
  - name: string
  - description: string

Response:
  - 200: Proposal: The updated draft
  - 403: Not the owner and not a privileged category
*/
func (handler *Handler) updateProposal(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload proposalRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	prop, err := handler.service.Update(request.Context(), claims, requestutil.Param(request, "id"), payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, prop)
}

/*
POST /api/v1/proposals/{id}/submit.

Description: Finalizes the draft metadata and announces the draft for
review. Submission requires a name.

Request:
  - name: string
  - description: string (optional)

Response:
  - 200: Proposal: The submitted draft with its discussion thread id
  - 422: The draft has no name
*/
func (handler *Handler) submitProposal(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload proposalRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	validator := &validate.Validator{}
	if err := validator.Required("name", payload.Name).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	prop, err := handler.service.Submit(request.Context(), claims, requestutil.Param(request, "id"), payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, prop)
}

/*
POST /api/v1/proposals/{id}/approve.

Description: Merges the draft into a new base snapshot, commits it to the
rulings repository and closes the draft.

Response:
  - 204: Merged and committed
  - 409: The draft fails the consistency check
*/
func (handler *Handler) approveProposal(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.Approve(request.Context(), claims, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Reference Mutation Endpoints

type referenceRequest struct {
	UID string `json:"uid"`
	URL string `json:"url"`
}

/*
POST /api/v1/proposals/{id}/references.

Request:
  - uid: string ("<SRC> <YYYYMMDD>", suffixed on collision when omitted)
  - url: string

Response:
  - 201: Reference
  - 422: Malformed uid or url, or date outside the source's tenure
*/
func (handler *Handler) insertReference(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload referenceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	validator := &validate.Validator{}
	if err := validator.Required("url", payload.URL).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	ref, err := handler.service.InsertReference(request.Context(), claims, requestutil.Param(request, "id"), payload.UID, payload.URL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, ref)
}

/*
PUT /api/v1/proposals/{id}/references/{ref}.

Request:
  - url: string

Response:
  - 200: Reference: With its new url
*/
func (handler *Handler) updateReference(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload referenceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	ref, err := handler.service.UpdateReference(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "ref"), payload.URL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ref)
}

/*
DELETE /api/v1/proposals/{id}/references/{ref}.

Response:
  - 204: Tombstoned in the draft
  - 403: Rulebook references cannot be deleted
*/
func (handler *Handler) deleteReference(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.DeleteReference(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "ref")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Ruling Mutation Endpoints

type rulingRequest struct {
	Text string `json:"text"`
}

/*
POST /api/v1/proposals/{id}/rulings/{target}.

Request:
  - text: string (Must cite at least one reference)

Response:
  - 201: Ruling: With its content-derived uid and substitutions
  - 422: Empty text or unresolvable citation
*/
func (handler *Handler) insertRuling(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload rulingRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	ruling, err := handler.service.InsertRuling(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "target"), payload.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, ruling)
}

/*
PUT /api/v1/proposals/{id}/rulings/{target}/{ruling}.

Request:
  - text: string

Response:
  - 200: Ruling: The rewritten ruling, uid unchanged
*/
func (handler *Handler) updateRuling(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload rulingRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	ruling, err := handler.service.UpdateRuling(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "target"), requestutil.Param(request, "ruling"), payload.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ruling)
}

/*
DELETE /api/v1/proposals/{id}/rulings/{target}/{ruling}.

Response:
  - 204: Tombstoned in the draft
*/
func (handler *Handler) deleteRuling(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.DeleteRuling(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "target"), requestutil.Param(request, "ruling")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/proposals/{id}/rulings/{target}/{ruling}/restore.

Response:
  - 200: Ruling: The base version, draft changes dropped
*/
func (handler *Handler) restoreRuling(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	ruling, err := handler.service.RestoreRuling(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "target"), requestutil.Param(request, "ruling"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ruling)
}

// # Group Mutation Endpoints

type groupRequest struct {
	UID   string            `json:"uid"`
	Name  string            `json:"name"`
	Cards map[string]string `json:"cards"`
}

/*
POST /api/v1/proposals/{id}/groups.
PUT  /api/v1/proposals/{id}/groups/{group}.

Request:
  - uid: string (POST only, empty mints a provisional id)
  - name: string
  - cards: map of card uid to prefix

Response:
  - 200: Group: The upserted group with hydrated members
*/
func (handler *Handler) upsertGroup(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	var payload groupRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	uid := requestutil.Param(request, "group")
	if uid == "" {
		uid = payload.UID
	}
	group, err := handler.service.UpsertGroup(request.Context(), claims, requestutil.Param(request, "id"), uid, payload.Name, payload.Cards)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, group)
}

/*
DELETE /api/v1/proposals/{id}/groups/{group}.

Response:
  - 204: Tombstoned in the draft
*/
func (handler *Handler) deleteGroup(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := handler.service.DeleteGroup(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "group")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/proposals/{id}/groups/{group}/restore.

Response:
  - 200: Group: The base version, draft changes dropped
*/
func (handler *Handler) restoreGroup(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	group, err := handler.service.RestoreGroup(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "group"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, group)
}

/*
POST /api/v1/proposals/{id}/groups/{group}/cards/{card}/restore.

Response:
  - 200: Group: With the one membership row reverted
*/
func (handler *Handler) restoreGroupCard(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	group, err := handler.service.RestoreGroupCard(request.Context(), claims, requestutil.Param(request, "id"), requestutil.Param(request, "group"), requestutil.Param(request, "card"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, group)
}
