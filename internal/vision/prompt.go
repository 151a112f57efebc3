package vision

// extractionPrompt instructs the model to return the fixed transaction
// schema for one statement page. Output must be a bare JSON array so that
// coercion can validate each row independently.
const extractionPrompt = "You are extracting transaction data from a bank statement page image.\n\n" +
	"Task:\n" +
	"- Extract ALL transactions visible on this page.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the merchant/payee name and details\n" +
	"- \"amount\": number (negative for debits/charges, positive for deposits/credits)\n" +
	"- \"balance\": number or null, the running balance after the transaction if shown\n\n" +
	"Rules:\n" +
	"- Debits (money out) must be NEGATIVE numbers; credits (money in) POSITIVE.\n" +
	"- If the statement has separate \"paid out\" / \"paid in\" columns, convert to a single signed \"amount\".\n" +
	"- Convert all dates to YYYY-MM-DD format.\n" +
	"- Extract EVERY transaction on the page, do not skip any.\n" +
	"- If the running balance is missing, set \"balance\" to null.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n" +
	"If there are no transactions on the page, return an empty array: []\n"
