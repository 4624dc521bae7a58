package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/service"
)

const (
	PageSize       = 100 // messages listed per Gmail page
	MaxSearchPages = 10  // hard stop for one search
)

type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	htmlPolicy   *bluemonday.Policy
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     "https://oauth2.googleapis.com/token",
		htmlPolicy:   bluemonday.StrictPolicy(),
	}
}

// messageAPI is the slice of the Gmail API a search needs
type messageAPI interface {
	list(ctx context.Context, query, pageToken string) (*gmail.ListMessagesResponse, error)
	get(ctx context.Context, id string) (*gmail.Message, error)
}

type gmailAPI struct {
	svc *gmail.Service
}

func (a gmailAPI) list(ctx context.Context, query, pageToken string) (*gmail.ListMessagesResponse, error) {
	call := a.svc.Users.Messages.List("me").Q(query).MaxResults(PageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (a gmailAPI) get(ctx context.Context, id string) (*gmail.Message, error) {
	return a.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
}

func (c *Client) newService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}

	gmailService, err := gmail.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return gmailService, nil
}

// Search runs a Gmail query and follows page tokens until they run out.
// A failure after the first page ends the search with what was collected
// and marks the result partial.
func (c *Client) Search(ctx context.Context, accessToken string, query string) (*service.SearchResult, error) {
	gmailService, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return c.search(ctx, gmailAPI{svc: gmailService}, query)
}

func (c *Client) search(ctx context.Context, api messageAPI, query string) (*service.SearchResult, error) {
	result := &service.SearchResult{}
	pageToken := ""

	for page := 0; page < MaxSearchPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		listResp, err := api.list(ctx, query, pageToken)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("failed to list messages: %w", err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: search stopped on page %d, keeping %d messages: %v", page+1, len(result.Messages), err)
			result.Partial = true
			return result, nil
		}

		log.Printf("Gmail API returned %d message IDs (nextPageToken: %s)", len(listResp.Messages), listResp.NextPageToken)

		for _, ref := range listResp.Messages {
			fullMsg, err := api.get(ctx, ref.Id)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("Warning: failed to get message %s: %v", ref.Id, err)
				continue
			}
			result.Messages = append(result.Messages, c.parseMessage(fullMsg))
		}

		pageToken = listResp.NextPageToken
		if pageToken == "" {
			return result, nil
		}
	}

	log.Printf("Warning: search hit the %d page limit, keeping %d messages", MaxSearchPages, len(result.Messages))
	result.Partial = true
	return result, nil
}

// GetProfileEmail returns the mailbox address the token belongs to
func (c *Client) GetProfileEmail(ctx context.Context, accessToken string) (string, error) {
	gmailService, err := c.newService(ctx, accessToken)
	if err != nil {
		return "", err
	}

	profile, err := gmailService.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.EmailAddress == "" {
		return "", fmt.Errorf("profile has no email address")
	}
	return strings.ToLower(profile.EmailAddress), nil
}

// parseMessage flattens a full Gmail message into a Message. Plain text is
// preferred; HTML-only mail is reduced to text.
func (c *Client) parseMessage(msg *gmail.Message) models.Message {
	var from, subject string
	var date models.Date

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "Subject":
				subject = header.Value
			case "From":
				from = header.Value
			case "Date":
				date = models.ParseMessageDate(header.Value)
				if date.IsZero() {
					log.Printf("Warning: failed to parse date '%s'", header.Value)
				}
			}
		}
	}

	// fall back to Gmail's receive time
	if date.IsZero() && msg.InternalDate > 0 {
		date = models.DateOf(time.UnixMilli(msg.InternalDate).UTC())
	}

	bodyText, bodyHTML := c.extractBodies(msg.Payload)
	body := bodyText
	if strings.TrimSpace(body) == "" && bodyHTML != "" {
		body = c.htmlToText(bodyHTML)
	}
	if strings.TrimSpace(body) == "" {
		body = html.UnescapeString(msg.Snippet)
	}

	return models.NewMessage(msg.Id, from, subject, body, date)
}

// htmlToText strips every tag and collapses whitespace
func (c *Client) htmlToText(markup string) string {
	// block-level breaks would otherwise glue words together
	markup = strings.NewReplacer("<br", " <br", "</p>", "</p> ", "</div>", "</div> ", "</td>", "</td> ").Replace(markup)
	text := html.UnescapeString(c.htmlPolicy.Sanitize(markup))
	return strings.Join(strings.Fields(text), " ")
}

// extractBodies extracts both text and HTML bodies from message payload
func (c *Client) extractBodies(payload *gmail.MessagePart) (string, string) {
	var textPlain, textHTML string
	if payload == nil {
		return "", ""
	}

	// Check if body is in the main payload
	if payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodeBody(payload.Body.Data); err == nil {
			switch payload.MimeType {
			case "text/plain":
				textPlain = decoded
			case "text/html":
				textHTML = decoded
			}
		}
	}

	c.extractBodiesFromParts(payload.Parts, &textPlain, &textHTML)

	return textPlain, textHTML
}

// extractBodiesFromParts recursively extracts text and HTML from message parts
func (c *Client) extractBodiesFromParts(parts []*gmail.MessagePart, textPlain, textHTML *string) {
	for _, part := range parts {
		if part.Body != nil && part.Body.Data != "" {
			if decoded, err := decodeBody(part.Body.Data); err == nil {
				if part.MimeType == "text/plain" && *textPlain == "" {
					*textPlain = decoded
				} else if part.MimeType == "text/html" && *textHTML == "" {
					*textHTML = decoded
				}
			}
		}

		if len(part.Parts) > 0 {
			c.extractBodiesFromParts(part.Parts, textPlain, textHTML)
		}
	}
}

// decodeBody accepts padded and unpadded base64url
func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", err
		}
	}
	return string(decoded), nil
}

// RefreshAccessToken refreshes the OAuth2 access token
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*service.TokenRefreshResult, error) {
	config := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: c.tokenURL,
		},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
	}

	tokenSource := config.TokenSource(ctx, token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	result := &service.TokenRefreshResult{
		AccessToken: newToken.AccessToken,
		ExpiresAt:   newToken.Expiry,
	}

	// Check if refresh token was rotated
	if newToken.RefreshToken != "" && newToken.RefreshToken != refreshToken {
		result.RefreshToken = newToken.RefreshToken
	} else {
		result.RefreshToken = refreshToken // Keep the same refresh token
	}

	log.Printf("Token refreshed successfully, expires at: %s", result.ExpiresAt)

	return result, nil
}
