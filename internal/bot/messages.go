package bot

// All user-facing bot messages in one place.

// ── /start & /help ──────────────────────────────────────────────────

const msgStart = `<b>Вітаю в Blackout Monitor!</b>

Я слідкую за графіками планових відключень світла і попереджаю, коли ваша черга скоро залишиться без електрики або коли графік змінюється.

/subscribe - Підписатися на чергу
/unsubscribe - Відписатися від черги
/list - Мої підписки
/status - Поточний стан черги
/regions - Доступні регіони та черги
/help - Детальніше`

const msgHelp = `<b>Як це працює:</b>

1. Оберіть регіон та чергу через /subscribe, наприклад: <code>/subscribe IF 4.1</code>
2. Я перевіряю графік кожні 10 хвилин
3. За 15 хвилин до відключення чи відновлення надішлю попередження
4. Якщо графік змінився або з'явилися нові дати — теж повідомлю

<b>Команди:</b>
/subscribe РЕГІОН ЧЕРГА — підписатися (напр. <code>/subscribe IF 4.1</code>)
/unsubscribe РЕГІОН ЧЕРГА — відписатися
/list — мої підписки
/status [РЕГІОН ЧЕРГА] — стан черги зараз
/regions — список регіонів та черг`

// ── Generic / errors ────────────────────────────────────────────────

const (
	msgError          = "Щось пішло не так. Спробуйте пізніше."
	msgUsageSubscribe = "Формат: /subscribe РЕГІОН ЧЕРГА\nНаприклад: <code>/subscribe IF 4.1</code>"
	msgUnknownRegion  = "Невідомий регіон. Список доступних: /regions"
	msgUnknownQueue   = "Такої черги немає в цьому регіоні. Список: /regions"
	msgFetchError     = "Не вдалося отримати графік. Спробуйте пізніше."
)

// ── Subscriptions ───────────────────────────────────────────────────

const (
	msgSubscribed        = "✅ Підписано: %s, черга %s"
	msgAlreadySubscribed = "Ви вже підписані на %s, черга %s"
	msgUnsubscribed      = "Відписано: %s, черга %s"
	msgNotSubscribed     = "Ви не були підписані на %s, черга %s"
	msgNoSubscriptions   = "У вас ще немає підписок.\n\nПідпишіться: <code>/subscribe IF 4.1</code>"
	msgListHeader        = "<b>Ваші підписки:</b>\n"
)

// ── /status ─────────────────────────────────────────────────────────

const (
	msgStatusOn       = "💡 <b>%s, черга %s</b>\nСвітло є"
	msgStatusOff      = "🕯 <b>%s, черга %s</b>\nВідключено (%s – %s)"
	msgStatusNextOff  = "\nНаступне відключення: %s о %s"
	msgStatusRestore  = "\nВідновлення через %s"
	msgStatusShutdown = "\nВідключення через %s"
	msgStatusTotal    = "\nЗагалом без світла сьогодні: %s"
)

// ── Alerts ──────────────────────────────────────────────────────────

const (
	msgAlertShutdown    = "⚠️ <b>%s, черга %s</b>\nВідключення світла через %d хв"
	msgAlertRestoration = "💡 <b>%s, черга %s</b>\nВідновлення світла через %d хв"
	msgAlertChanged     = "📋 <b>%s, черга %s</b>\nГрафік відключень змінився, перевірте розклад"
	msgAlertNewDates    = "🗓 <b>%s, черга %s</b>\nОпубліковано графік на нові дати: %s"
)
