package fakeapi

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const localUser = "uid"

type claims struct {
	UserID int64 `json:"uid"`
	Admin  bool  `json:"adm"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64, admin bool) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "folio-demo",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (s *Server) parseToken(raw string) (*claims, error) {
	var out claims
	_, err := jwt.ParseWithClaims(raw, &out, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	revoked := s.revoked[out.ID]
	s.mu.Unlock()
	if revoked {
		return nil, errors.New("token revoked")
	}
	return &out, nil
}

func (s *Server) authenticate(c *fiber.Ctx) (*claims, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	cl, err := s.parseToken(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	_, exists := s.findUserLocked(cl.UserID)
	s.mu.Unlock()
	if !exists {
		return nil, false
	}
	return cl, true
}

func (s *Server) requireUser(c *fiber.Ctx) error {
	cl, ok := s.authenticate(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals(localUser, cl)
	return c.Next()
}

func (s *Server) requireAdmin(c *fiber.Ctx) error {
	cl, ok := s.authenticate(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !cl.Admin {
		return fail(c, fiber.StatusForbidden, "administrator access required")
	}
	c.Locals(localUser, cl)
	return c.Next()
}

func caller(c *fiber.Ctx) *claims {
	cl, _ := c.Locals(localUser).(*claims)
	return cl
}

func (s *Server) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.cost)
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (s *Server) generateCaptcha(c *fiber.Ctx) error {
	var b strings.Builder
	for range captchaDigits {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	answer := b.String()
	img, err := captchaImage(answer)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "captcha generation failed")
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.captchas[id] = answer
	s.mu.Unlock()
	return ok(c, fiber.Map{"captcha_id": id, "captcha_base64": img})
}

// verifyCaptcha consumes the captcha whether or not the answer matches.
func (s *Server) verifyCaptcha(id, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, found := s.captchas[id]
	delete(s.captchas, id)
	return found && strings.TrimSpace(value) == answer
}

const (
	captchaDigits = 4
	glyphW        = 3
	glyphH        = 5
	captchaScale  = 4
)

// 3x5 digit glyphs, one row per string.
var digitGlyphs = [10][glyphH]string{
	{"###", "#.#", "#.#", "#.#", "###"},
	{".#.", "##.", ".#.", ".#.", "###"},
	{"###", "..#", "###", "#..", "###"},
	{"###", "..#", "###", "..#", "###"},
	{"#.#", "#.#", "###", "..#", "..#"},
	{"###", "#..", "###", "..#", "###"},
	{"###", "#..", "###", "#.#", "###"},
	{"###", "..#", ".#.", ".#.", ".#."},
	{"###", "#.#", "###", "#.#", "###"},
	{"###", "#.#", "###", "..#", "###"},
}

// captchaImage draws digits as a PNG data URI.
func captchaImage(digits string) (string, error) {
	cell := (glyphW + 1) * captchaScale
	width := len(digits)*cell + captchaScale
	height := (glyphH + 2) * captchaScale
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	ink := color.Gray{Y: 0}
	for i, ch := range digits {
		glyph := digitGlyphs[ch-'0']
		ox := captchaScale + i*cell
		for row, line := range glyph {
			for col, px := range line {
				if px != '#' {
					continue
				}
				for dy := 0; dy < captchaScale; dy++ {
					for dx := 0; dx < captchaScale; dx++ {
						img.SetGray(ox+col*captchaScale+dx, captchaScale+row*captchaScale+dy, ink)
					}
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
