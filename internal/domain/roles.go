package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AdminSet хранит Telegram ID администраторов бота.
type AdminSet map[int64]struct{}

// ParseAdminIDs разбирает список ID администраторов из конфигурации.
func ParseAdminIDs(raw []string) (AdminSet, error) {
	set := make(AdminSet, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный ID администратора %q: %w", trimmed, err)
		}
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("список администраторов пуст")
	}
	return set, nil
}

// IsAdmin сообщает, является ли пользователь администратором.
func (s AdminSet) IsAdmin(userID int64) bool {
	_, ok := s[userID]
	return ok
}
