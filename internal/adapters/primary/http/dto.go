package http

import (
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"` // uniquement pour l'utilisateur lui-même
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthDTO struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int64   `json:"expires_in"` // secondes
}

type RelationDTO struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
}

type ProfileDTO struct {
	User     UserDTO      `json:"user"`
	Relation *RelationDTO `json:"relation,omitempty"`
}

type StoryDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MediaDTO struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type PostDTO struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Media      []MediaDTO `json:"media"`
	Tags       []string   `json:"tags"`
	TotalLikes int        `json:"total_likes"`
	Publish    time.Time  `json:"publish"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type FeedPostDTO struct {
	PostDTO
	Liked bool `json:"liked"`
	Saved bool `json:"saved"`
}

type PostDetailDTO struct {
	FeedPostDTO
	Comments []CommentDTO `json:"comments"`
}

type CommentDTO struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post"`
	UserID    string    `json:"user"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

type PageDTO[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// --- Mappers Domain -> DTO ---

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL, CreatedAt: u.CreatedAt}
}

// toSelfDTO expose l'email, réservé à l'utilisateur lui-même
func toSelfDTO(u *domain.User) UserDTO {
	dto := toUserDTO(u)
	dto.Email = u.Email
	return dto
}

func toAuthDTO(res *ports.AuthResponse) AuthDTO {
	return AuthDTO{
		User:         toSelfDTO(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(res.ExpiresIn.Seconds()),
	}
}

func toStoryDTO(s *domain.Story) StoryDTO {
	return StoryDTO{
		ID:        s.ID,
		AuthorID:  s.AuthorID,
		ImageURL:  s.Image.URL,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func toStoryDTOs(stories []*domain.Story) []StoryDTO {
	out := make([]StoryDTO, len(stories))
	for i, s := range stories {
		out[i] = toStoryDTO(s)
	}
	return out
}

func toPostDTO(p *domain.Post) PostDTO {
	media := make([]MediaDTO, len(p.Media))
	for i, m := range p.Media {
		media[i] = MediaDTO{URL: m.URL, Type: string(m.Type)}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostDTO{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		Title:      p.Title,
		Body:       p.Body,
		Media:      media,
		Tags:       tags,
		TotalLikes: p.TotalLikes,
		Publish:    p.Publish,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPostDTOs(posts []*domain.Post) []PostDTO {
	out := make([]PostDTO, len(posts))
	for i, p := range posts {
		out[i] = toPostDTO(p)
	}
	return out
}

func toFeedPostDTO(fp domain.FeedPost) FeedPostDTO {
	return FeedPostDTO{PostDTO: toPostDTO(fp.Post), Liked: fp.Liked, Saved: fp.Saved}
}

func toFeedPostDTOs(feed []domain.FeedPost) []FeedPostDTO {
	out := make([]FeedPostDTO, len(feed))
	for i, fp := range feed {
		out[i] = toFeedPostDTO(fp)
	}
	return out
}

func toPostDetailDTO(d *domain.PostDetail) PostDetailDTO {
	comments := make([]CommentDTO, len(d.Comments))
	for i, c := range d.Comments {
		comments[i] = toCommentDTO(c)
	}
	return PostDetailDTO{FeedPostDTO: toFeedPostDTO(d.FeedPost), Comments: comments}
}

func toCommentDTO(c *domain.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Name:      c.Name,
		Body:      c.Body,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
