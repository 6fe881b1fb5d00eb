package codegen

import "fmt"

// Detail level instructions for code explanation prompts.
var detailInstructions = map[string]string{
	"basic":    "Provide a brief, high-level explanation suitable for beginners",
	"medium":   "Provide a detailed explanation with examples and context",
	"detailed": "Provide a comprehensive explanation with technical details, complexity analysis, and best practices",
}

func buildGeneratePrompt(prompt, language string) string {
	return fmt.Sprintf("You are an expert %[1]s programmer. Generate clean, efficient, and well-documented code based on the following requirements:\n\n"+
		"Requirements: %[2]s\n\n"+
		"Please provide:\n"+
		"1. Clean, readable code\n"+
		"2. Appropriate comments\n"+
		"3. Error handling where necessary\n"+
		"4. Best practices for %[1]s\n\n"+
		"Generate only the code, no additional explanations unless specifically requested.",
		language, prompt)
}

func buildOptimizePrompt(code, language, focus string) string {
	return fmt.Sprintf("You are an expert %[1]s programmer specializing in code optimization. \n"+
		"Analyze the following code and optimize it for %[2]s.\n\n"+
		"Original code:\n"+
		"```%[1]s\n%[3]s\n```\n\n"+
		"Please provide:\n"+
		"1. Optimized version of the code\n"+
		"2. Explanation of changes made\n"+
		"3. Performance/improvement benefits\n"+
		"4. Any trade-offs or considerations\n\n"+
		"Focus on: %[2]s",
		language, focus, code)
}

func buildDebugPrompt(code, language, errorMessage string) string {
	errorContext := ""
	if errorMessage != "" {
		errorContext = fmt.Sprintf("\nError message: %s", errorMessage)
	}

	return fmt.Sprintf("You are an expert %[1]s programmer and debugger. \n"+
		"Analyze the following code and identify issues, bugs, or potential problems.\n\n"+
		"Code to debug:\n"+
		"```%[1]s\n%[2]s\n```%[3]s\n\n"+
		"Please provide:\n"+
		"1. Identification of issues/bugs\n"+
		"2. Corrected version of the code\n"+
		"3. Explanation of what was wrong\n"+
		"4. Best practices to avoid similar issues\n"+
		"5. Testing suggestions\n\n"+
		"Be thorough and provide working solutions.",
		language, code, errorContext)
}

func buildExplainPrompt(code, language, detailLevel string) string {
	instruction, ok := detailInstructions[detailLevel]
	if !ok {
		instruction = detailInstructions["medium"]
	}

	return fmt.Sprintf("You are an expert %[1]s programmer and teacher. \n"+
		"Explain the following code in a clear and educational manner.\n\n"+
		"Code to explain:\n"+
		"```%[1]s\n%[2]s\n```\n\n"+
		"Instructions: %[3]s\n\n"+
		"Please provide:\n"+
		"1. Overall purpose and functionality\n"+
		"2. Step-by-step breakdown\n"+
		"3. Key concepts and techniques used\n"+
		"4. Input/output behavior\n"+
		"5. Time/space complexity (if applicable)\n"+
		"6. Potential use cases\n"+
		"7. Related concepts or improvements\n\n"+
		"Make it educational and easy to understand.",
		language, code, instruction)
}

func buildConvertPrompt(code, sourceLanguage, targetLanguage string, preserveComments bool) string {
	commentInstruction := "Focus on code conversion, comments optional"
	if preserveComments {
		commentInstruction = "Preserve and convert comments appropriately"
	}

	return fmt.Sprintf("You are an expert programmer fluent in multiple programming languages. \n"+
		"Convert the following %[1]s code to %[2]s.\n\n"+
		"Source code (%[1]s):\n"+
		"```%[1]s\n%[3]s\n```\n\n"+
		"Instructions:\n"+
		"1. Convert the code to idiomatic %[2]s\n"+
		"2. Maintain the same functionality and logic\n"+
		"3. Use %[2]s best practices and conventions\n"+
		"4. %[4]s\n"+
		"5. Handle language-specific features appropriately\n"+
		"6. Provide equivalent libraries/modules where needed\n\n"+
		"Please provide:\n"+
		"1. Converted code\n"+
		"2. Notes about any significant changes or considerations\n"+
		"3. Required imports/dependencies for %[2]s\n"+
		"4. Any limitations or differences in behavior\n\n"+
		"Make sure the converted code is functional and follows %[2]s standards.",
		sourceLanguage, targetLanguage, code, commentInstruction)
}
