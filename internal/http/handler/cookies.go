package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieOptions are the attributes shared by all session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

func (o CookieOptions) set(c *fiber.Ctx, name, value, path string, expires time.Time, sameSite string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   o.Domain,
		Expires:  expires,
		Secure:   o.Secure,
		HTTPOnly: true,
		SameSite: sameSite,
	})
}

func (o CookieOptions) clear(c *fiber.Ctx, name, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   o.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   o.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
