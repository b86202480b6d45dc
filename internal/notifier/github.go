package notifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// GitHubNotifier opens a labelled issue for every escalation. Other kinds
// of notification are skipped.
type GitHubNotifier struct {
	client *github.Client
	Owner  string
	Repo   string
	Labels []string
}

// NewGitHubNotifier creates an issue notifier authenticated with token.
func NewGitHubNotifier(ctx context.Context, token, owner, repo string, labels []string) *GitHubNotifier {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHubNotifier{
		client: github.NewClient(oauth2.NewClient(ctx, ts)),
		Owner:  owner,
		Repo:   repo,
		Labels: labels,
	}
}

// SetBaseURL points the client at another API host, such as GitHub Enterprise.
func (g *GitHubNotifier) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse github base url: %w", err)
	}
	g.client.BaseURL = u
	return nil
}

func (g *GitHubNotifier) Name() string { return "github" }

func (g *GitHubNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Kind != KindEscalation {
		return nil
	}
	labels := append([]string(nil), g.Labels...)
	issue, _, err := g.client.Issues.Create(ctx, g.Owner, g.Repo, &github.IssueRequest{
		Title:  github.String(n.Title),
		Body:   github.String(n.Body),
		Labels: &labels,
	})
	if err != nil {
		return fmt.Errorf("create issue in %s/%s: %w", g.Owner, g.Repo, err)
	}
	log.Info().Int("issue", issue.GetNumber()).Str("url", issue.GetHTMLURL()).Msg("escalation issue opened")
	return nil
}
