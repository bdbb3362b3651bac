package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tg-channel-scheduler/internal/domain"
)

// Action задаёт действие inline-кнопки.
type Action string

const (
	ActionMenu                 Action = "menu"
	ActionHelp                 Action = "help"
	ActionCancel               Action = "cancel"
	ActionAddChannel           Action = "add_ch"
	ActionMyChannels           Action = "my_ch"
	ActionChannel              Action = "ch"
	ActionDeleteChannel        Action = "ch_del"
	ActionConfirmDeleteChannel Action = "ch_del_ok"
	ActionNewPost              Action = "post_new"
	ActionPost                 Action = "post"
	ActionEditPost             Action = "post_edit"
	ActionDeletePost           Action = "post_del"
	ActionConfirmDeletePost    Action = "post_del_ok"
	ActionScheduleMenu         Action = "sched"
	ActionScheduleKind         Action = "sched_kind"
	ActionScheduleWeekday      Action = "sched_wd"
	ActionScheduleNoon         Action = "sched_noon"
	ActionScheduleOnce         Action = "sched_once"
	ActionScheduleCustom       Action = "sched_cron"
	ActionPostSchedules        Action = "sched_list"
	ActionCancelSchedule       Action = "sched_del"
	ActionAdmin                Action = "adm"
	ActionAdminStats           Action = "adm_stats"
	ActionAdminChannels        Action = "adm_chs"
	ActionAdminChannel         Action = "adm_ch"
	ActionToggleBan            Action = "adm_ban"
	ActionToggleVIP            Action = "adm_vip"
	ActionBroadcast            Action = "adm_bc"
	ActionBroadcastConfirm     Action = "adm_bc_ok"
)

var knownActions = map[Action]struct{}{}

func init() {
	for _, a := range []Action{
		ActionMenu, ActionHelp, ActionCancel, ActionAddChannel, ActionMyChannels, ActionChannel,
		ActionDeleteChannel, ActionConfirmDeleteChannel, ActionNewPost, ActionPost, ActionEditPost,
		ActionDeletePost, ActionConfirmDeletePost, ActionScheduleMenu, ActionScheduleKind,
		ActionScheduleWeekday, ActionScheduleNoon, ActionScheduleOnce, ActionScheduleCustom,
		ActionPostSchedules, ActionCancelSchedule, ActionAdmin, ActionAdminStats, ActionAdminChannels,
		ActionAdminChannel, ActionToggleBan, ActionToggleVIP, ActionBroadcast, ActionBroadcastConfirm,
	} {
		knownActions[a] = struct{}{}
	}
}

// ErrBadCallback возвращается для данных кнопки, которые бот не формировал.
var ErrBadCallback = errors.New("некорректные данные кнопки")

// Command хранит разобранные данные inline-кнопки в формате действие:id:вид:день недели.
type Command struct {
	Action  Action
	ID      int64
	Kind    domain.RecurrenceKind
	Weekday time.Weekday
}

// Data кодирует команду в callback_data.
func (c Command) Data() string {
	return fmt.Sprintf("%s:%d:%s:%d", c.Action, c.ID, c.Kind, int(c.Weekday))
}

// ParseCommand разбирает callback_data, сформированные Command.Data.
func ParseCommand(data string) (Command, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return Command{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	action := Action(parts[0])
	if _, ok := knownActions[action]; !ok {
		return Command{}, fmt.Errorf("%w: неизвестное действие %q", ErrBadCallback, parts[0])
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id < 0 {
		return Command{}, fmt.Errorf("%w: id %q", ErrBadCallback, parts[1])
	}
	kind := domain.RecurrenceKind(parts[2])
	switch kind {
	case "", domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceEveryTwoDays:
	default:
		return Command{}, fmt.Errorf("%w: вид %q", ErrBadCallback, parts[2])
	}
	weekday, err := strconv.Atoi(parts[3])
	if err != nil || weekday < int(time.Sunday) || weekday > int(time.Saturday) {
		return Command{}, fmt.Errorf("%w: день недели %q", ErrBadCallback, parts[3])
	}
	return Command{Action: action, ID: id, Kind: kind, Weekday: time.Weekday(weekday)}, nil
}

func cmd(action Action) Command {
	return Command{Action: action}
}

func cmdID(action Action, id int64) Command {
	return Command{Action: action, ID: id}
}
