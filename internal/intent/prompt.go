package intent

import (
	"fmt"
	"time"

	"aria/internal/llm"
)

// The instruction templates pin down the taxonomy, the per-kind field
// schemas, and the output contract (JSON only). The reference date is
// interpolated so the model can ground relative dates; anything it leaves
// relative is resolved deterministically by the validator afterwards.

const promptEN = `You are the intent parser for a personal productivity assistant.
Today's date is %s (%s).

Extract zero or more actions from the user's message. Supported action types:
- "create_todo": fields {"title": string, "priority": "low"|"medium"|"high" (optional), "dueDate": string (optional)}
- "create_expense": fields {"amount": number or string, "currency": string (optional), "category": string (optional), "description": string (optional), "date": string (optional)}
- "create_calendar_event": fields {"title": string, "date": string, "startTime": "HH:MM" (optional), "endTime": "HH:MM" (optional), "allDay": boolean (optional)}

Reply with ONLY a JSON object, no prose, no markdown:
{"actions": [{"type": "...", "confidence": 0.0-1.0, "data": {...}}]}

Rules:
- Dates may stay relative ("tomorrow", "next monday") or be absolute YYYY-MM-DD.
- Amounts keep their currency token if the user gave one ("$15", "15 dollars").
- Multiple actions in one message produce multiple entries, in mention order.
- If nothing actionable is present, reply {"actions": []}.

Examples:
User: "remind me to buy milk tomorrow"
{"actions": [{"type": "create_todo", "confidence": 0.95, "data": {"title": "buy milk", "dueDate": "tomorrow"}}]}

User: "spent $15 on lunch"
{"actions": [{"type": "create_expense", "confidence": 0.9, "data": {"amount": "$15", "category": "food", "description": "lunch"}}]}

User: "I have meetings at 3pm and 6pm tomorrow"
{"actions": [{"type": "create_calendar_event", "confidence": 0.9, "data": {"title": "meeting", "date": "tomorrow", "startTime": "15:00"}}, {"type": "create_calendar_event", "confidence": 0.9, "data": {"title": "meeting", "date": "tomorrow", "startTime": "18:00"}}]}

User: "how are you today"
{"actions": []}`

const promptZH = `你是个人助理应用的意图解析器。
今天的日期是 %s（%s）。

从用户消息中提取零个或多个操作。支持的操作类型：
- "create_todo"：字段 {"title": 字符串, "priority": "low"|"medium"|"high"（可选）, "dueDate": 字符串（可选）}
- "create_expense"：字段 {"amount": 数字或字符串, "currency": 字符串（可选）, "category": 字符串（可选）, "description": 字符串（可选）, "date": 字符串（可选）}
- "create_calendar_event"：字段 {"title": 字符串, "date": 字符串, "startTime": "HH:MM"（可选）, "endTime": "HH:MM"（可选）, "allDay": 布尔（可选）}

只回复 JSON 对象，不要任何解释或 markdown：
{"actions": [{"type": "...", "confidence": 0.0-1.0, "data": {...}}]}

规则：
- 日期可以保持相对形式（"明天"、"下周一"）或使用 YYYY-MM-DD。
- 金额保留用户给出的货币标记（"¥15"、"15块"）。
- 一条消息里的多个操作按提及顺序输出多个条目。
- 没有可执行操作时回复 {"actions": []}。

示例：
用户："提醒我明天买牛奶"
{"actions": [{"type": "create_todo", "confidence": 0.95, "data": {"title": "买牛奶", "dueDate": "明天"}}]}

用户："午饭花了15块"
{"actions": [{"type": "create_expense", "confidence": 0.9, "data": {"amount": "¥15", "category": "餐饮", "description": "午饭"}}]}`

// buildMessages assembles the chat turns for one parse call.
func buildMessages(text string, parseCtx ParseContext) []llm.Message {
	template := promptEN
	if parseCtx.Language == "zh" {
		template = promptZH
	}
	ref := parseCtx.ReferenceDate
	system := fmt.Sprintf(template, ref.Format("2006-01-02"), weekdayName(ref.Weekday(), parseCtx.Language))
	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	}
}

func weekdayName(wd time.Weekday, language string) string {
	if language != "zh" {
		return wd.String()
	}
	names := map[time.Weekday]string{
		time.Sunday:    "星期日",
		time.Monday:    "星期一",
		time.Tuesday:   "星期二",
		time.Wednesday: "星期三",
		time.Thursday:  "星期四",
		time.Friday:    "星期五",
		time.Saturday:  "星期六",
	}
	return names[wd]
}
