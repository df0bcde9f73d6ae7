package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
)

var (
	ErrNoPermission = errors.New("you do not have permission")
	ErrNotFound     = errors.New("resource not found")
)

// restaurantIDFromCtx returns the tenant id set by the auth middleware.
func restaurantIDFromCtx(c *gin.Context) uint {
	v, _ := c.Get("restaurant_id")
	id, _ := v.(uint)
	return id
}

func userIDFromCtx(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	id, _ := v.(uint)
	return id
}
