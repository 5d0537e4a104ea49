package fakeapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
)

// Seeded accounts.
const (
	AdminUsername  = "admin"
	AdminPassword  = "admin123"
	ReaderUsername = "reader"
	ReaderPassword = "reader123"
)

type seedBook struct {
	title, author, kind, publisher string
	price, discount, stock, sale   int
	category                       int
}

var seedCategories = []api.Category{
	{Name: "Fiction", Description: "Novels and short stories", Icon: "book", Color: "#719cd6", Sort: 1, IsActive: true},
	{Name: "Technology", Description: "Programming and systems", Icon: "cpu", Color: "#81b29a", Sort: 2, IsActive: true},
	{Name: "History", Description: "The past, retold", Icon: "clock", Color: "#dbc074", Sort: 3, IsActive: true},
	{Name: "Children", Description: "Picture books and early readers", Icon: "star", Color: "#c94f6d", Sort: 4, IsActive: true},
}

var seedBooks = []seedBook{
	{"The Go Programming Language", "Alan Donovan", "paperback", "Addison-Wesley", 89, 85, 20, 310, 2},
	{"Concurrency in Go", "Katherine Cox-Buday", "paperback", "O'Reilly", 69, 100, 12, 140, 2},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "paperback", "O'Reilly", 118, 80, 8, 520, 2},
	{"The Pragmatic Programmer", "Andrew Hunt", "hardcover", "Addison-Wesley", 79, 0, 15, 260, 2},
	{"One Hundred Years of Solitude", "Gabriel Garcia Marquez", "paperback", "Harper", 45, 90, 30, 410, 1},
	{"The Remains of the Day", "Kazuo Ishiguro", "paperback", "Faber", 39, 100, 18, 95, 1},
	{"Dune", "Frank Herbert", "paperback", "Ace", 52, 75, 25, 600, 1},
	{"Pride and Prejudice", "Jane Austen", "hardcover", "Penguin", 29, 100, 40, 220, 1},
	{"SPQR", "Mary Beard", "hardcover", "Liveright", 65, 88, 9, 130, 3},
	{"The Guns of August", "Barbara Tuchman", "paperback", "Random House", 48, 100, 6, 75, 3},
	{"Where the Wild Things Are", "Maurice Sendak", "hardcover", "Harper", 25, 95, 50, 330, 4},
	{"The Very Hungry Caterpillar", "Eric Carle", "board", "Philomel", 19, 100, 60, 480, 4},
}

var seedCarousels = []api.Carousel{
	{Title: "Autumn reading", Description: "Up to 25% off selected fiction", SortOrder: 1, IsActive: true},
	{Title: "For engineers", Description: "Systems books picked by our staff", SortOrder: 2, IsActive: true},
	{Title: "Little readers", Description: "Picture books for every age", SortOrder: 3, IsActive: true},
}

func (s *Server) seed() error {
	base := s.now().Add(-time.Duration(len(seedBooks)) * 24 * time.Hour)

	for _, c := range seedCategories {
		cat := c
		cat.ID = s.allocID()
		cat.CreatedAt = base.Format(timeLayout)
		s.categories = append(s.categories, &cat)
	}
	for i, b := range seedBooks {
		created := base.Add(time.Duration(i) * 24 * time.Hour).Format(timeLayout)
		s.books = append(s.books, &api.Book{
			ID:         s.allocID(),
			Title:      b.title,
			Author:     b.author,
			Price:      decimal.NewFromInt(int64(b.price)),
			Discount:   b.discount,
			Type:       b.kind,
			Stock:      b.stock,
			Status:     api.BookOnShelf,
			Publisher:  b.publisher,
			Language:   "en",
			CategoryID: s.categories[b.category-1].ID,
			Sale:       b.sale,
			CreatedAt:  created,
			UpdatedAt:  created,
		})
	}
	for _, c := range seedCarousels {
		car := c
		car.ID = s.allocID()
		s.carousels = append(s.carousels, car)
	}

	for _, u := range []struct {
		name, password, email, phone string
		admin                        bool
	}{
		{AdminUsername, AdminPassword, "admin@folio.test", "13800000000", true},
		{ReaderUsername, ReaderPassword, "reader@folio.test", "13900000000", false},
	} {
		if _, err := s.addUser(api.UserInput{Username: u.name, Password: u.password, Email: u.email, Phone: u.phone, IsAdmin: u.admin}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) addUser(in api.UserInput) (api.User, error) {
	hash, err := s.hash(in.Password)
	if err != nil {
		return api.User{}, err
	}
	now := s.stamp()
	acct := &account{
		user: api.User{
			ID:        s.allocID(),
			Username:  in.Username,
			Email:     in.Email,
			Phone:     in.Phone,
			IsAdmin:   in.IsAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		},
		hash: hash,
	}
	s.users = append(s.users, acct)
	return acct.user, nil
}

func (s *Server) findUserLocked(id int64) (*account, bool) {
	for _, u := range s.users {
		if u.user.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) findUsernameLocked(name string) (*account, bool) {
	for _, u := range s.users {
		if u.user.Username == name {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) findBookLocked(id int64) (*api.Book, bool) {
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

func (s *Server) findCategoryLocked(id int64) (*api.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}
